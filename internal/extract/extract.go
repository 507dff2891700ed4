// Package extract converts linked documents into plain text so item
// content can be indexed and digested alongside the feed fields.
package extract

import (
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
)

// Document is the plain-text form of a fetched document.
type Document struct {
	Title string
	Text  string
}

// Extractor converts raw document bytes into plain text.
type Extractor interface {
	Extract(r io.Reader) (*Document, error)
}

// ForContent picks an extractor from the Content-Type header, falling
// back to the URL's file extension when the header is missing or generic.
func ForContent(contentType, rawURL string) (Extractor, error) {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "text/html", "application/xhtml+xml":
			return &HTMLExtractor{}, nil
		case "text/markdown":
			return &MarkdownExtractor{}, nil
		case "application/pdf":
			return &PDFExtractor{}, nil
		case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
			return &DOCXExtractor{}, nil
		case "text/csv":
			return &CSVExtractor{}, nil
		case "text/plain":
			return &TextExtractor{}, nil
		}
	}

	ext := urlExt(rawURL)
	switch ext {
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	case ".csv":
		return &CSVExtractor{}, nil
	case ".txt":
		return &TextExtractor{}, nil
	case "", "/":
		// Most feed links point at HTML pages without an extension.
		return &HTMLExtractor{}, nil
	}
	return nil, fmt.Errorf("unsupported content type %q for %s", contentType, rawURL)
}

func urlExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(path.Ext(u.Path))
}
