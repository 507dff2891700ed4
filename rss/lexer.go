package rss

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// errNeedMore signals that the window does not hold a complete token yet.
// The engine fills the buffer and retries at the same position.
var errNeedMore = errors.New("rss: need more data")

type eventKind uint8

const (
	evStartTag eventKind = iota
	evEndTag
	evText
	evCDATA
)

// event is a single lexical markup event. Tag names are lowercased before
// they reach the record accumulator, so all tag matching downstream is
// case-insensitive.
type event struct {
	kind eventKind
	name string
	text string
}

var (
	commentOpen  = []byte("<!--")
	commentClose = []byte("-->")
	cdataOpen    = []byte("<![CDATA[")
	cdataClose   = []byte("]]>")
	piClose      = []byte("?>")
)

// scanEvent scans the next lexical event from data. It returns the number
// of bytes consumed along with the event, errNeedMore when the window ends
// mid-token (never when atEOF is true), or io.EOF when the input is
// exhausted. Comments, processing instructions, directives and self-closing
// elements are consumed without producing an event; malformed markup is
// skipped one byte at a time so the scanner resyncs at the next '<'.
func scanEvent(data []byte, atEOF bool) (int, event, error) {
	i := 0
	for {
		rest := data[i:]
		if len(rest) == 0 {
			if atEOF {
				return i, event{}, io.EOF
			}
			return 0, event{}, errNeedMore
		}

		if rest[0] != '<' {
			end := bytes.IndexByte(rest, '<')
			if end < 0 {
				if !atEOF {
					return 0, event{}, errNeedMore
				}
				end = len(rest)
			}
			return i + end, event{kind: evText, text: decodeText(rest[:end])}, nil
		}

		if len(rest) < 2 {
			if atEOF {
				return i + len(rest), event{}, io.EOF
			}
			return 0, event{}, errNeedMore
		}

		switch {
		case rest[1] == '/':
			name, nameEnd, ok := scanName(rest, 2)
			if !ok {
				if len(rest) == 2 && !atEOF {
					return 0, event{}, errNeedMore
				}
				// "</" followed by garbage: drop the run up to the next
				// '<' so it never surfaces as field text.
				if next := bytes.IndexByte(rest[2:], '<'); next >= 0 {
					i += 2 + next
					continue
				}
				if atEOF {
					return i + len(rest), event{}, io.EOF
				}
				return 0, event{}, errNeedMore
			}
			close := bytes.IndexByte(rest[nameEnd:], '>')
			if close < 0 {
				if atEOF {
					return i + len(rest), event{}, io.EOF
				}
				return 0, event{}, errNeedMore
			}
			return i + nameEnd + close + 1, event{kind: evEndTag, name: lower(name)}, nil

		case rest[1] == '!':
			if n, complete := scanAngleBang(rest, atEOF); !complete {
				return 0, event{}, errNeedMore
			} else if n < 0 {
				// CDATA section: payload sits between the markers.
				end := bytes.Index(rest[len(cdataOpen):], cdataClose)
				content := rest[len(cdataOpen) : len(cdataOpen)+end]
				return i + len(cdataOpen) + end + len(cdataClose),
					event{kind: evCDATA, text: string(content)}, nil
			} else if n == 0 {
				if atEOF {
					return i + len(rest), event{}, io.EOF
				}
				return 0, event{}, errNeedMore
			} else {
				i += n
				continue
			}

		case rest[1] == '?':
			end := bytes.Index(rest[2:], piClose)
			if end < 0 {
				if atEOF {
					return i + len(rest), event{}, io.EOF
				}
				return 0, event{}, errNeedMore
			}
			i += 2 + end + len(piClose)
			continue

		case isNameStart(rest[1]):
			name, nameEnd, _ := scanName(rest, 1)
			close, selfClosing, ok := scanStartTagClose(rest, nameEnd)
			if !ok {
				if atEOF {
					return i + len(rest), event{}, io.EOF
				}
				return 0, event{}, errNeedMore
			}
			if selfClosing {
				// Matches the pull-lexer convention of treating empty
				// elements as no-ops: no start or end event is produced.
				i += close + 1
				continue
			}
			return i + close + 1, event{kind: evStartTag, name: lower(name)}, nil

		default:
			// '<' not opening recognizable markup: skip the single bad
			// byte and resync.
			i++
			continue
		}
	}
}

// scanAngleBang handles "<!" constructs. Returns (n, true) with n the bytes
// to skip for comments and directives, (-1, true) for a complete CDATA
// section, (0, true) when the construct is unterminated, or (0, false) when
// more bytes are needed to classify it.
func scanAngleBang(rest []byte, atEOF bool) (int, bool) {
	if bytes.HasPrefix(rest, commentOpen) {
		end := bytes.Index(rest[len(commentOpen):], commentClose)
		if end < 0 {
			return 0, atEOF
		}
		return len(commentOpen) + end + len(commentClose), true
	}
	if bytes.HasPrefix(rest, cdataOpen) {
		end := bytes.Index(rest[len(cdataOpen):], cdataClose)
		if end < 0 {
			return 0, atEOF
		}
		return -1, true
	}
	// Could still be a prefix of "<!--" or "<![CDATA[".
	if !atEOF && (isPrefixOf(rest, commentOpen) || isPrefixOf(rest, cdataOpen)) {
		return 0, false
	}
	// Directive (doctype etc.): skip to '>' outside quotes and brackets.
	end, ok := scanDirectiveEnd(rest, 2)
	if !ok {
		return 0, atEOF
	}
	return end, true
}

func isPrefixOf(short, full []byte) bool {
	return len(short) < len(full) && bytes.HasPrefix(full, short)
}

func isNameStart(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b == '_' || b == ':'
}

func isNameByte(b byte) bool {
	return isNameStart(b) || b >= '0' && b <= '9' || b == '-' || b == '.'
}

// scanName parses a tag name starting at offset from. It returns the name
// and the index of the first byte after it.
func scanName(data []byte, from int) ([]byte, int, bool) {
	if from >= len(data) || !isNameStart(data[from]) {
		return nil, 0, false
	}
	i := from + 1
	for i < len(data) && isNameByte(data[i]) {
		i++
	}
	return data[from:i], i, true
}

// scanStartTagClose scans a start tag for its closing '>' outside quoted
// attribute values. It reports the index of '>' and whether the tag is
// self-closing; ok is false when the window ends first.
func scanStartTagClose(data []byte, from int) (close int, selfClosing, ok bool) {
	var quote byte
	for i := from; i < len(data); i++ {
		b := data[i]
		if quote != 0 {
			if b == quote {
				quote = 0
			}
			continue
		}
		switch b {
		case '"', '\'':
			quote = b
		case '>':
			j := i - 1
			for j >= from && (data[j] == ' ' || data[j] == '\t' || data[j] == '\n' || data[j] == '\r') {
				j--
			}
			return i, j >= from && data[j] == '/', true
		}
	}
	return 0, false, false
}

// scanDirectiveEnd scans "<! ... >" with quote and doctype-bracket
// awareness, returning the index after the closing '>'.
func scanDirectiveEnd(data []byte, from int) (int, bool) {
	var quote byte
	depth := 0
	for i := from; i < len(data); i++ {
		b := data[i]
		if quote != 0 {
			if b == quote {
				quote = 0
			}
			continue
		}
		switch b {
		case '"', '\'':
			quote = b
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '>':
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// decodeText converts a raw character-data run to a string, expanding the
// predefined entity references and numeric character references. Anything
// unrecognized is passed through literally.
func decodeText(data []byte) string {
	amp := bytes.IndexByte(data, '&')
	if amp < 0 {
		return string(data)
	}
	var sb strings.Builder
	sb.Grow(len(data))
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b != '&' {
			sb.WriteByte(b)
			continue
		}
		n, s, ok := decodeEntity(data[i:])
		if !ok {
			sb.WriteByte(b)
			continue
		}
		sb.WriteString(s)
		i += n - 1
	}
	return sb.String()
}

var predefinedEntities = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"apos": "'",
	"quot": "\"",
}

// decodeEntity decodes one entity reference at the start of data,
// returning its byte length and replacement.
func decodeEntity(data []byte) (int, string, bool) {
	semi := bytes.IndexByte(data, ';')
	if semi < 2 || semi > 12 {
		return 0, "", false
	}
	ref := data[1:semi]
	if ref[0] == '#' {
		r, ok := parseCharRef(ref[1:])
		if !ok {
			return 0, "", false
		}
		return semi + 1, string(r), true
	}
	s, ok := predefinedEntities[string(ref)]
	if !ok {
		return 0, "", false
	}
	return semi + 1, s, true
}

func parseCharRef(ref []byte) (rune, bool) {
	base := 10
	if len(ref) > 0 && (ref[0] == 'x' || ref[0] == 'X') {
		base = 16
		ref = ref[1:]
	}
	if len(ref) == 0 {
		return 0, false
	}
	var value int64
	for _, b := range ref {
		var digit int64
		switch {
		case b >= '0' && b <= '9':
			digit = int64(b - '0')
		case base == 16 && b >= 'a' && b <= 'f':
			digit = int64(b-'a') + 10
		case base == 16 && b >= 'A' && b <= 'F':
			digit = int64(b-'A') + 10
		default:
			return 0, false
		}
		value = value*int64(base) + digit
		if value > utf8.MaxRune {
			return 0, false
		}
	}
	r := rune(value)
	if r == 0 || r >= 0xD800 && r <= 0xDFFF {
		return 0, false
	}
	return r, true
}

// lower lowercases an ASCII tag name without allocating when already
// lowercase.
func lower(name []byte) string {
	for _, b := range name {
		if b >= 'A' && b <= 'Z' {
			return strings.ToLower(string(name))
		}
	}
	return string(name)
}
