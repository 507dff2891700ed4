package rss

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testItem struct {
	Title       string
	Description string
	Link        string
	PubDate     string
}

func (it *testItem) Populate(n Node) {
	switch n.Tag {
	case "title":
		it.Title = n.Value()
	case "description":
		it.Description = n.Value()
	case "link":
		it.Link = n.Value()
	case "pubdate":
		it.PubDate = n.Value()
	}
}

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
    <channel>
        <title>Test RSS Feed</title>
        <description>A test RSS feed</description>
        <item>
            <title>First Item</title>
            <description>Description of first item</description>
            <link>https://example.com/1</link>
            <pubDate>Mon, 01 Jan 2024 00:00:00 GMT</pubDate>
        </item>
        <item>
            <title>Second Item</title>
            <description><![CDATA[Description with <b>HTML</b> content]]></description>
            <link>https://example.com/2</link>
            <pubDate>Tue, 02 Jan 2024 00:00:00 GMT</pubDate>
        </item>
    </channel>
</rss>`

func TestParser_SingleItem(t *testing.T) {
	p := NewParser[testItem](strings.NewReader(sampleFeed))

	item, ok := p.Next()
	if !ok {
		t.Fatal("expected an item")
	}
	if item.Title != "First Item" {
		t.Errorf("title: got %q", item.Title)
	}
	if item.Description != "Description of first item" {
		t.Errorf("description: got %q", item.Description)
	}
	if item.Link != "https://example.com/1" {
		t.Errorf("link: got %q", item.Link)
	}
	if item.PubDate != "Mon, 01 Jan 2024 00:00:00 GMT" {
		t.Errorf("pubDate: got %q", item.PubDate)
	}
}

func TestParser_MultipleItems(t *testing.T) {
	p := NewParser[testItem](strings.NewReader(sampleFeed))

	item1, ok := p.Next()
	if !ok {
		t.Fatal("expected first item")
	}
	if item1.Title != "First Item" {
		t.Errorf("item 1 title: got %q", item1.Title)
	}

	item2, ok := p.Next()
	if !ok {
		t.Fatal("expected second item")
	}
	if item2.Title != "Second Item" {
		t.Errorf("item 2 title: got %q", item2.Title)
	}
	if item2.Description != "Description with <b>HTML</b> content" {
		t.Errorf("item 2 CDATA description: got %q", item2.Description)
	}

	if _, ok := p.Next(); ok {
		t.Error("expected no third item")
	}
	if err := p.Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParser_EmptyFeed(t *testing.T) {
	const empty = `<?xml version="1.0"?>
<rss version="2.0">
    <channel>
        <title>Empty RSS Feed</title>
    </channel>
</rss>`

	p := NewParser[testItem](strings.NewReader(empty))
	if _, ok := p.Next(); ok {
		t.Error("expected no items from an empty feed")
	}
}

func TestParser_NotXML(t *testing.T) {
	p := NewParser[testItem](strings.NewReader("not xml at all"))
	if _, ok := p.Next(); ok {
		t.Error("expected no items from non-XML input")
	}
	if err := p.Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParser_All(t *testing.T) {
	p := NewParser[testItem](strings.NewReader(sampleFeed))

	var items []*testItem
	for item := range p.All() {
		items = append(items, item)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "First Item" || items[1].Title != "Second Item" {
		t.Errorf("items out of order: %q, %q", items[0].Title, items[1].Title)
	}
}

func TestParser_AllEarlyStop(t *testing.T) {
	p := NewParser[testItem](strings.NewReader(sampleFeed))

	count := 0
	for range p.All() {
		count++
		break
	}
	if count != 1 {
		t.Errorf("expected 1 iteration, got %d", count)
	}
}

func TestParser_CaseInsensitiveTags(t *testing.T) {
	const feed = `<?xml version="1.0"?>
<RSS version="2.0">
    <CHANNEL>
        <ITEM>
            <TITLE>Case Test</TITLE>
            <Description>Case insensitive tags</Description>
        </ITEM>
    </CHANNEL>
</RSS>`

	p := NewParser[testItem](strings.NewReader(feed))
	item, ok := p.Next()
	if !ok {
		t.Fatal("expected an item")
	}
	if item.Title != "Case Test" {
		t.Errorf("title: got %q", item.Title)
	}
	if item.Description != "Case insensitive tags" {
		t.Errorf("description: got %q", item.Description)
	}
}

// A field can carry both plain text and a CDATA block; neither side may be
// dropped.
func TestParser_TextAndCDATAOnSameField(t *testing.T) {
	const feed = `<rss><channel><item><description>plain<![CDATA[literal]]></description></item></channel></rss>`

	p := NewParser[captureItem](strings.NewReader(feed))
	item, ok := p.Next()
	if !ok {
		t.Fatal("expected an item")
	}
	if len(item.nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(item.nodes))
	}
	if got := item.nodes[0].Text; got != "plain" {
		t.Errorf("text: got %q", got)
	}
	if got := item.nodes[0].CDATA; got != "literal" {
		t.Errorf("CDATA: got %q", got)
	}
}

// captureItem records every delivered node verbatim.
type captureItem struct {
	nodes []Node
}

func (c *captureItem) Populate(n Node) {
	c.nodes = append(c.nodes, n)
}

// trickleReader delivers one byte per Read with intermittent empty reads,
// exercising suspension and resumption at arbitrary byte boundaries.
type trickleReader struct {
	data    []byte
	pos     int
	stalled bool
}

func (r *trickleReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	if r.pos%7 == 3 && !r.stalled {
		// Transient empty read: progress resumes on the next call.
		r.stalled = true
		return 0, nil
	}
	r.stalled = false
	p[0] = r.data[r.pos]
	r.pos++
	return 1, nil
}

func TestParser_ChunkingInvariance(t *testing.T) {
	whole := NewParser[testItem](strings.NewReader(sampleFeed))
	bytewise := NewParser[testItem](&trickleReader{data: []byte(sampleFeed)})

	for i := 0; ; i++ {
		w, wok := whole.Next()
		b, bok := bytewise.Next()
		if wok != bok {
			t.Fatalf("item %d: whole ok=%v, byte-at-a-time ok=%v", i, wok, bok)
		}
		if !wok {
			break
		}
		if *w != *b {
			t.Errorf("item %d differs: %+v vs %+v", i, *w, *b)
		}
	}
}

func TestParser_TruncatedTailDiscardsPartialItem(t *testing.T) {
	// The second item's closing tag never arrives.
	const feed = `<rss><channel>
<item><title>A</title></item>
<item><title>B</title>`

	p := NewParser[testItem](strings.NewReader(feed))

	item, ok := p.Next()
	if !ok || item.Title != "A" {
		t.Fatalf("expected item A, got %+v ok=%v", item, ok)
	}
	if _, ok := p.Next(); ok {
		t.Error("partial trailing item must be discarded")
	}
	if err := p.Err(); err != nil {
		t.Errorf("truncation is not a source error, got %v", err)
	}
}

func TestParser_MalformedRunRecovery(t *testing.T) {
	// A stray '<' inside one field must not lose the sibling field or the
	// following item.
	const feed = `<rss><channel>
<item><title>first < broken</title><link>https://example.com/a</link></item>
<item><title>second</title></item>
</channel></rss>`

	p := NewParser[testItem](strings.NewReader(feed))

	item1, ok := p.Next()
	if !ok {
		t.Fatal("expected first item despite malformed field")
	}
	if item1.Link != "https://example.com/a" {
		t.Errorf("sibling field lost: link=%q", item1.Link)
	}

	item2, ok := p.Next()
	if !ok {
		t.Fatal("expected second item after malformed run")
	}
	if item2.Title != "second" {
		t.Errorf("item 2 title: got %q", item2.Title)
	}
}

func TestParser_MalformedEndTagNotInFieldText(t *testing.T) {
	// A "</" run that never forms a valid end tag is dropped, not folded
	// into the surrounding field's text.
	const feed = `<rss><channel>
<item><title>before</ 12 >after</title></item>
</channel></rss>`

	p := NewParser[testItem](strings.NewReader(feed))

	item, ok := p.Next()
	if !ok {
		t.Fatal("expected an item despite malformed end tag")
	}
	if strings.Contains(item.Title, "/") || strings.Contains(item.Title, "12") {
		t.Errorf("malformed bytes leaked into field text: %q", item.Title)
	}
	if !strings.Contains(item.Title, "before") {
		t.Errorf("text before malformed run lost: %q", item.Title)
	}
}

func TestParser_DocumentOrderAndCount(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?><rss><channel><title>Large Feed</title>`)
	for i := range 100 {
		fmt.Fprintf(&sb, `<item><title>Item %d</title><link>https://example.com/%d</link></item>`, i, i)
	}
	sb.WriteString(`</channel></rss>`)

	p := NewParser[testItem](strings.NewReader(sb.String()))
	count := 0
	for item := range p.All() {
		want := fmt.Sprintf("Item %d", count)
		if item.Title != want {
			t.Fatalf("item %d: got title %q, want %q", count, item.Title, want)
		}
		count++
	}
	if count != 100 {
		t.Errorf("expected 100 items, got %d", count)
	}
}

func TestParser_MixedTextAndCDATAItems(t *testing.T) {
	const feed = `<rss><channel><item><title>A</title></item><item><title>B</title><description><![CDATA[x]]></description></item></channel></rss>`

	p := NewParser[testItem](strings.NewReader(feed))

	a, ok := p.Next()
	if !ok || a.Title != "A" || a.Description != "" {
		t.Fatalf("first item: got %+v ok=%v", a, ok)
	}
	b, ok := p.Next()
	if !ok || b.Title != "B" || b.Description != "x" {
		t.Fatalf("second item: got %+v ok=%v", b, ok)
	}
	if _, ok := p.Next(); ok {
		t.Error("expected exactly two items")
	}
}

// An element named like the boundary tag one level deeper is an ordinary
// field node, not a record boundary.
func TestParser_NestedItemTagIsField(t *testing.T) {
	const feed = `<rss><channel><item><title>outer</title><item>inner</item></item></channel></rss>`

	p := NewParser[captureItem](strings.NewReader(feed))
	item, ok := p.Next()
	if !ok {
		t.Fatal("expected an item")
	}
	if len(item.nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d: %+v", len(item.nodes), item.nodes)
	}
	if item.nodes[1].Tag != "item" || item.nodes[1].Text != "inner" {
		t.Errorf("nested item node: got %+v", item.nodes[1])
	}
	if _, ok := p.Next(); ok {
		t.Error("nested boundary tag must not start a second record")
	}
}

func TestParser_EntityDecoding(t *testing.T) {
	const feed = `<rss><channel><item><title>Ben &amp; Jerry &lt;3 &#65;&#x42; &unknown;</title></item></channel></rss>`

	p := NewParser[testItem](strings.NewReader(feed))
	item, ok := p.Next()
	if !ok {
		t.Fatal("expected an item")
	}
	want := "Ben & Jerry <3 AB &unknown;"
	if item.Title != want {
		t.Errorf("title: got %q, want %q", item.Title, want)
	}
}

func TestParser_CustomItemTag(t *testing.T) {
	const feed = `<feed><entry><title>atom-ish</title></entry></feed>`

	p := NewParser[testItem](strings.NewReader(feed), WithItemTag("ENTRY"))
	item, ok := p.Next()
	if !ok {
		t.Fatal("expected an entry")
	}
	if item.Title != "atom-ish" {
		t.Errorf("title: got %q", item.Title)
	}
}

func TestParser_SelfClosingElementsSkipped(t *testing.T) {
	const feed = `<rss><channel><item><enclosure url="https://example.com/a.mp3" length="1"/><title>with enclosure</title></item></channel></rss>`

	p := NewParser[captureItem](strings.NewReader(feed))
	item, ok := p.Next()
	if !ok {
		t.Fatal("expected an item")
	}
	if len(item.nodes) != 1 || item.nodes[0].Tag != "title" {
		t.Errorf("expected only the title node, got %+v", item.nodes)
	}
}

type failingReader struct {
	data []byte
	sent int
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.sent >= len(r.data) {
		return 0, errors.New("connection reset")
	}
	n := copy(p, r.data[r.sent:])
	r.sent += n
	return n, nil
}

func TestParser_SourceErrorEndsSequence(t *testing.T) {
	const head = `<rss><channel><item><title>A</title></item><item><title>B`

	p := NewParser[testItem](&failingReader{data: []byte(head)})

	item, ok := p.Next()
	if !ok || item.Title != "A" {
		t.Fatalf("expected item A before the failure, got %+v ok=%v", item, ok)
	}
	if _, ok := p.Next(); ok {
		t.Error("failed source must end the sequence")
	}
	if p.Err() == nil {
		t.Error("Err() should report the source failure")
	}
}

func TestParser_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")
	if err := os.WriteFile(path, []byte(sampleFeed), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := FromFile[testItem](path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	defer p.Close()

	item, ok := p.Next()
	if !ok || item.Title != "First Item" {
		t.Fatalf("expected first item, got %+v ok=%v", item, ok)
	}
}

func TestParser_FromFileMissing(t *testing.T) {
	if _, err := FromFile[testItem]("/nonexistent/feed.xml"); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestNode_Value(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"text only", Node{Text: "t"}, "t"},
		{"cdata only", Node{CDATA: "c"}, "c"},
		{"text wins over cdata", Node{Text: "t", CDATA: "c"}, "t"},
		{"both empty", Node{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.Value(); got != tt.want {
				t.Errorf("Value() = %q, want %q", got, tt.want)
			}
		})
	}
}
