package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVExtractor renders CSV rows as labeled plain text.
type CSVExtractor struct{}

func (e *CSVExtractor) Extract(r io.Reader) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return &Document{}, nil
	}

	headers := records[0]
	var buf strings.Builder
	for _, row := range records[1:] {
		for j, cell := range row {
			if j > 0 {
				buf.WriteString(", ")
			}
			if j < len(headers) {
				buf.WriteString(headers[j] + ": " + cell)
			} else {
				buf.WriteString(cell)
			}
		}
		buf.WriteString("\n")
	}

	return &Document{Text: strings.TrimSpace(buf.String())}, nil
}
