package textextract

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVExtractor handles spreadsheet exports. Each row becomes one line with its
// non-empty cells separated by spaces, so a "Context","text" row reads as a
// heading with inline content.
type CSVExtractor struct{}

func (e *CSVExtractor) Extract(r io.Reader) (string, error) {
	reader := csv.NewReader(skipBOM(r))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}

	rows := make([]string, 0, len(records))
	for _, record := range records {
		cells := record[:0]
		for _, cell := range record {
			if cell = strings.TrimSpace(cell); cell != "" {
				cells = append(cells, cell)
			}
		}
		rows = append(rows, strings.Join(cells, " "))
	}
	return joinLines(rows), nil
}

// skipBOM drops a leading UTF-8 byte-order mark.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(bom)); err == nil && string(b) == bom {
		br.Discard(len(bom))
	}
	return br
}
