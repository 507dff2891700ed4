package feed

import (
	"strings"
	"time"

	"github.com/dgallion1/feedgest/rss"
)

// Item is the standard RSS 2.0 item shape used throughout the service.
// It accumulates fields incrementally as the engine delivers decoded nodes.
type Item struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	Content     string    `json:"content,omitempty"`
	Author      string    `json:"author,omitempty"`
	GUID        string    `json:"guid,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
	PubDate     time.Time `json:"pub_date,omitzero"`

	// Extracted holds plain text pulled from the linked document when
	// link extraction is enabled. Not populated by the parser.
	Extracted string `json:"extracted,omitempty"`
}

// Populate implements the rss field-dispatch strategy. Unrecognized tags
// are ignored.
func (it *Item) Populate(n rss.Node) {
	switch n.Tag {
	case "title":
		it.Title = strings.TrimSpace(n.Value())
	case "link":
		it.Link = strings.TrimSpace(n.Value())
	case "description":
		it.Description = n.Value()
	case "content:encoded":
		it.Content = n.Value()
	case "author", "dc:creator":
		it.Author = strings.TrimSpace(n.Value())
	case "guid":
		it.GUID = strings.TrimSpace(n.Value())
	case "category":
		if c := strings.TrimSpace(n.Value()); c != "" {
			it.Categories = append(it.Categories, c)
		}
	case "pubdate":
		it.PubDate = ParseDate(n.Value())
	}
}

// Key returns a stable identity for deduplication: the GUID when present,
// otherwise the link.
func (it *Item) Key() string {
	if it.GUID != "" {
		return it.GUID
	}
	return it.Link
}

// Feed is one ingested feed with its parsed items.
type Feed struct {
	ID        string    `json:"feed_id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	FetchedAt time.Time `json:"fetched_at"`
	Items     []Item    `json:"items"`
}

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02 15:04:05",
}

// ParseDate parses the date formats seen in the wild in RSS pubDate
// fields. It returns the zero time when nothing matches.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
