// Package digest renders a feed into a readable Markdown summary and
// its HTML equivalent.
package digest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/dgallion1/feedgest/internal/extract"
	"github.com/dgallion1/feedgest/internal/feed"
)

// Config controls digest rendering.
type Config struct {
	MaxItems     int // Maximum items included in the digest.
	SnippetWords int // Target snippet length in words.
}

func DefaultConfig() Config {
	return Config{
		MaxItems:     20,
		SnippetWords: 60,
	}
}

// Markdown renders the feed as a Markdown document: the feed title,
// then one section per item with a link, date, and snippet.
func Markdown(f *feed.Feed, cfg Config) string {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 20
	}
	if cfg.SnippetWords <= 0 {
		cfg.SnippetWords = 60
	}

	var buf strings.Builder
	title := f.Title
	if title == "" {
		title = f.URL
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	if !f.FetchedAt.IsZero() {
		fmt.Fprintf(&buf, "_Fetched %s, %d items._\n\n", f.FetchedAt.Format("2006-01-02 15:04 MST"), len(f.Items))
	}

	items := f.Items
	if len(items) > cfg.MaxItems {
		items = items[:cfg.MaxItems]
	}

	for _, it := range items {
		if it.Link != "" {
			fmt.Fprintf(&buf, "## [%s](%s)\n\n", headingText(it), it.Link)
		} else {
			fmt.Fprintf(&buf, "## %s\n\n", headingText(it))
		}
		if !it.PubDate.IsZero() {
			fmt.Fprintf(&buf, "*%s*", it.PubDate.Format("Mon, 02 Jan 2006"))
			if it.Author != "" {
				fmt.Fprintf(&buf, " by %s", it.Author)
			}
			buf.WriteString("\n\n")
		} else if it.Author != "" {
			fmt.Fprintf(&buf, "*by %s*\n\n", it.Author)
		}
		if snip := Snippet(itemBody(it), cfg.SnippetWords); snip != "" {
			buf.WriteString(snip)
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

// HTML converts digest Markdown to HTML with goldmark.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.New().Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

func headingText(it feed.Item) string {
	if it.Title != "" {
		return it.Title
	}
	if it.Link != "" {
		return it.Link
	}
	return "(untitled)"
}

// itemBody picks the richest text an item carries. Descriptions are
// often HTML fragments, so tags are stripped before snippeting.
func itemBody(it feed.Item) string {
	switch {
	case it.Extracted != "":
		return it.Extracted
	case it.Content != "":
		return extract.StripTags(it.Content)
	case it.Description != "":
		return extract.StripTags(it.Description)
	}
	return ""
}

// Snippet truncates text to roughly maxWords, preferring to cut at a
// sentence boundary and marking truncation with an ellipsis.
func Snippet(text string, maxWords int) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}

	truncated := strings.Join(words[:maxWords], " ")
	sentences := splitSentences(truncated)
	if len(sentences) > 1 {
		// Drop the trailing partial sentence.
		whole := sentences[:len(sentences)-1]
		return strings.Join(whole, " ")
	}
	return truncated + "…"
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(current.String()))
	}

	return sentences
}
