package rss

import "io"

const (
	initialBufferSize = 4096
	// A reader returning (0, nil) repeatedly makes no progress; give up
	// after this many consecutive empty reads and treat the source as
	// exhausted with whatever bytes we already hold.
	maxEmptyReads = 100
)

// window buffers the bytes read from the source that have not yet been
// consumed as tokens. It grows geometrically while a token is incomplete
// and reclaims the consumed prefix before growing, so steady-state memory
// is bounded by the largest single token.
type window struct {
	r    io.Reader
	data []byte
	pos  int
	eof  bool
	err  error
}

// remaining returns the unconsumed byte window.
func (w *window) remaining() []byte {
	return w.data[w.pos:]
}

// consume drops the first n unconsumed bytes.
func (w *window) consume(n int) {
	w.pos += n
}

// ensure reads from the source until at least min unconsumed bytes are
// buffered. It returns false when the source is exhausted (or failed)
// before reaching min; the window then holds whatever partial tail was
// read and w.eof is set.
func (w *window) ensure(min int) bool {
	for len(w.data)-w.pos < min {
		if w.eof {
			return false
		}
		if err := w.fill(); err != nil {
			w.eof = true
			if err != io.EOF && w.err == nil {
				w.err = err
			}
		}
	}
	return true
}

// fill performs one successful read into the buffer, compacting and
// growing as needed.
func (w *window) fill() error {
	if len(w.data) == cap(w.data) {
		w.compact()
		if len(w.data) == cap(w.data) {
			w.grow()
		}
	}
	for range maxEmptyReads {
		n, err := w.r.Read(w.data[len(w.data):cap(w.data)])
		if n > 0 {
			w.data = w.data[:len(w.data)+n]
			return nil
		}
		if err != nil {
			return err
		}
	}
	return io.ErrNoProgress
}

// compact discards the consumed prefix, keeping the unconsumed tail.
func (w *window) compact() {
	if w.pos == 0 {
		return
	}
	if w.pos >= len(w.data) {
		w.data = w.data[:0]
		w.pos = 0
		return
	}
	copy(w.data, w.data[w.pos:])
	w.data = w.data[:len(w.data)-w.pos]
	w.pos = 0
}

func (w *window) grow() {
	newCap := cap(w.data) * 2
	if newCap < initialBufferSize {
		newCap = initialBufferSize
	}
	newBuf := make([]byte, len(w.data), newCap)
	copy(newBuf, w.data)
	w.data = newBuf
}
