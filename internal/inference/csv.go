package inference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// NullSentinel is the cell text treated as a missing value
const NullSentinel = "NULL"

// Dataset is tabular input ready for table creation: normalized columns plus typed rows
type Dataset struct {
	Header  []string
	Rows    [][]interface{}
	Columns []InferredColumn
}

// ReadCSV reads a header line and data rows, parses every cell with ParseCell
// and infers the column set. Short rows are padded with NULL; long rows are an error.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv input is empty")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]interface{}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if len(record) > len(header) {
			return nil, fmt.Errorf("csv line %d has %d fields, header has %d", line, len(record), len(header))
		}

		row := make([]interface{}, len(header))
		for i, cell := range record {
			row[i] = ParseCell(cell)
		}
		rows = append(rows, row)
	}

	return &Dataset{
		Header:  header,
		Rows:    rows,
		Columns: InferColumns(header, rows),
	}, nil
}

// ParseCell converts cell text into a typed value:
// int64, float64, bool, nil (empty or NULL) or the trimmed string itself.
func ParseCell(cell string) interface{} {
	s := strings.TrimSpace(cell)
	if s == "" || s == NullSentinel {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if looksNumeric(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// looksNumeric keeps ParseFloat from accepting words such as "nan" or "inf"
func looksNumeric(s string) bool {
	c := s[0]
	if c == '+' || c == '-' {
		if len(s) == 1 {
			return false
		}
		c = s[1]
	}
	return (c >= '0' && c <= '9') || c == '.'
}
