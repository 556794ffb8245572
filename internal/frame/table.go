package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table is a parsed CSV file: one header row plus records of equal width.
type Table struct {
	Header  []string
	Records [][]string
}

// ReadTable parses the CSV file at path.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTable(f)
}

// ParseTable reads a CSV document. The header must be non-empty with unique
// names, at least one record must follow it, and every record must have as
// many fields as the header.
func ParseTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, fmt.Errorf("csv header column %d is empty", i+1)
		}
		if seen[h] {
			return nil, fmt.Errorf("csv header repeats column %q", h)
		}
		seen[h] = true
		header[i] = h
	}

	// FieldsPerRecord was fixed by the header read.
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has a header but no records")
	}
	return &Table{Header: header, Records: records}, nil
}

// Column returns the index of the named column, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Rows returns the number of records.
func (t *Table) Rows() int { return len(t.Records) }
