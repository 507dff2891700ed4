package digest

import (
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/feedgest/internal/feed"
)

func sampleFeed() *feed.Feed {
	return &feed.Feed{
		ID:        "f1",
		URL:       "https://example.com/rss",
		Title:     "Example Blog",
		FetchedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Items: []feed.Item{
			{
				Title:       "First Post",
				Link:        "https://example.com/first",
				Description: "<p>A short description.</p>",
				Author:      "ana",
				PubDate:     time.Date(2024, 5, 30, 8, 0, 0, 0, time.UTC),
			},
			{
				Title:   "Second Post",
				Link:    "https://example.com/second",
				Content: "<p>Full content body here.</p>",
			},
		},
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleFeed(), DefaultConfig())

	if !strings.HasPrefix(md, "# Example Blog\n") {
		t.Errorf("digest should start with feed title:\n%s", md)
	}
	if !strings.Contains(md, "## [First Post](https://example.com/first)") {
		t.Errorf("digest missing first item heading:\n%s", md)
	}
	if !strings.Contains(md, "A short description.") {
		t.Errorf("digest should strip description markup:\n%s", md)
	}
	if strings.Contains(md, "<p>") {
		t.Errorf("digest should not carry raw HTML:\n%s", md)
	}
	if !strings.Contains(md, "by ana") {
		t.Errorf("digest missing author:\n%s", md)
	}
	if !strings.Contains(md, "2 items") {
		t.Errorf("digest missing item count:\n%s", md)
	}
}

func TestMarkdownCapsItems(t *testing.T) {
	f := sampleFeed()
	cfg := DefaultConfig()
	cfg.MaxItems = 1

	md := Markdown(f, cfg)
	if !strings.Contains(md, "First Post") {
		t.Errorf("digest missing first item:\n%s", md)
	}
	if strings.Contains(md, "Second Post") {
		t.Errorf("digest should cap at 1 item:\n%s", md)
	}
}

func TestMarkdownUntitledFeed(t *testing.T) {
	f := sampleFeed()
	f.Title = ""
	md := Markdown(f, DefaultConfig())
	if !strings.HasPrefix(md, "# https://example.com/rss\n") {
		t.Errorf("untitled feed should fall back to URL:\n%s", md)
	}
}

func TestHTML(t *testing.T) {
	html, err := HTML("# Title\n\nSome *emphasis*.\n")
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if !strings.Contains(html, "<h1>Title</h1>") {
		t.Errorf("expected rendered h1: %q", html)
	}
	if !strings.Contains(html, "<em>emphasis</em>") {
		t.Errorf("expected rendered emphasis: %q", html)
	}
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWords int
		want     string
	}{
		{"short text unchanged", "one two three", 10, "one two three"},
		{"whitespace collapsed", "a\n b\t c", 10, "a b c"},
		{"empty", "   ", 10, ""},
		{
			"cut at sentence boundary",
			"First sentence here. Second sentence is quite a bit longer than the first one.",
			8,
			"First sentence here.",
		},
		{
			"no boundary gets ellipsis",
			"a very long run of words with no punctuation at all keeps going",
			5,
			"a very long run of…",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Snippet(tt.text, tt.maxWords); got != tt.want {
				t.Errorf("Snippet(%q, %d) = %q, want %q", tt.text, tt.maxWords, got, tt.want)
			}
		})
	}
}
