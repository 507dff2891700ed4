package rss

// Node is one fully decoded field element inside an item: its tag name
// (always lowercase) plus whatever text and CDATA content appeared before
// the closing tag. Text and CDATA are independent; either or both may be
// empty.
type Node struct {
	Tag   string
	Text  string
	CDATA string
}

// Value returns the node's text content, falling back to CDATA when no
// plain text was present. Most RSS fields want exactly this.
func (n Node) Value() string {
	if n.Text != "" {
		return n.Text
	}
	return n.CDATA
}
