// Package rss is an incremental feed-extraction engine. It pulls raw bytes
// from any io.Reader and produces one decoded item at a time without
// buffering the whole document, so arbitrarily large or continuously
// arriving feeds parse under bounded memory.
//
// The item type is supplied by the caller: any struct whose pointer
// implements Populate(Node) can receive fields. A fresh zero value is
// allocated when an opening item tag is seen, Populate is called once per
// closed field element inside it, and the finished item is handed back when
// the closing item tag arrives. Incomplete items at end of input are
// discarded, never returned partially filled.
package rss

import (
	"fmt"
	"io"
	"iter"
	"net"
	"os"
	"strings"
)

const defaultItemTag = "item"

// Item constrains the per-record strategy: a pointer type that accumulates
// decoded nodes. Unrecognized tags should be silently ignored.
type Item[T any] interface {
	*T
	Populate(Node)
}

// Option configures a Parser.
type Option func(*settings)

type settings struct {
	itemTag string
}

// WithItemTag overrides the element name that delimits one record
// (default "item"). Matching is case-insensitive.
func WithItemTag(tag string) Option {
	return func(s *settings) {
		s.itemTag = strings.ToLower(tag)
	}
}

// Parser incrementally extracts items of type T from a byte stream.
// A Parser is single-owner: it must not be driven from multiple
// goroutines, and the sequence it produces is not restartable.
type Parser[T any, PT Item[T]] struct {
	win     window
	closer  io.Closer
	itemTag string
	done    bool
}

// NewParser binds an engine to any byte-readable source. The reader is
// consumed lazily; no bytes are read until the first Next call.
func NewParser[T any, PT Item[T]](r io.Reader, opts ...Option) *Parser[T, PT] {
	s := settings{itemTag: defaultItemTag}
	for _, opt := range opts {
		opt(&s)
	}
	return &Parser[T, PT]{
		win:     window{r: r},
		itemTag: s.itemTag,
	}
}

// FromFile opens the named file and binds an engine to it. The parser owns
// the file handle; call Close when done.
func FromFile[T any, PT Item[T]](path string, opts ...Option) (*Parser[T, PT], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	p := NewParser[T, PT](f, opts...)
	p.closer = f
	return p, nil
}

// FromConn binds an engine to a network connection's byte stream. The
// connection stays owned by the caller; deadlines and closing are the
// caller's to manage.
func FromConn[T any, PT Item[T]](conn net.Conn, opts ...Option) *Parser[T, PT] {
	return NewParser[T, PT](conn, opts...)
}

// Next returns the next complete item, or ok=false once the source is
// exhausted. Malformed fragments are skipped and an item whose closing tag
// never arrives is discarded, so false means only "no more items". Source
// read failures also end the sequence; inspect Err to distinguish them
// from a clean end of input.
func (p *Parser[T, PT]) Next() (*T, bool) {
	if p.done {
		return nil, false
	}

	var cur *T
	var stack []Node
	inItem := false

	for {
		data := p.win.remaining()
		adv, ev, err := scanEvent(data, p.win.eof)
		switch {
		case err == errNeedMore:
			p.win.ensure(len(data) + 1)
			continue
		case err != nil:
			p.win.consume(adv)
			p.done = true
			return nil, false
		}
		p.win.consume(adv)

		switch ev.kind {
		case evStartTag:
			if !inItem {
				if ev.name == p.itemTag {
					inItem = true
					cur = new(T)
				}
				continue
			}
			stack = append(stack, Node{Tag: ev.name})

		case evEndTag:
			if !inItem {
				continue
			}
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				PT(cur).Populate(top)
				continue
			}
			if ev.name == p.itemTag {
				return cur, true
			}

		case evText:
			if inItem && len(stack) > 0 {
				stack[len(stack)-1].Text += ev.text
			}

		case evCDATA:
			if inItem && len(stack) > 0 {
				stack[len(stack)-1].CDATA += ev.text
			}
		}
	}
}

// All exposes the remaining items as a lazy sequence of repeated pulls.
// The sequence is finite exactly when the source is; it cannot be ranged
// over twice.
func (p *Parser[T, PT]) All() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for {
			item, ok := p.Next()
			if !ok {
				return
			}
			if !yield(item) {
				return
			}
		}
	}
}

// Err reports the source failure that terminated the stream, if any.
// It is nil after a clean end of input.
func (p *Parser[T, PT]) Err() error {
	return p.win.err
}

// Close releases a source owned by the parser (FromFile). It is a no-op
// for caller-owned sources.
func (p *Parser[T, PT]) Close() error {
	p.done = true
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}
