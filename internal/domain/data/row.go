package data

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row represents a single table row as read back from storage.
// Values are aligned with Columns, which follow the table's column order.
type Row struct {
	Columns []string
	Values  []interface{}
}

// NewRow creates a Row; rows read from one statement share the columns slice
func NewRow(columns []string, values []interface{}) Row {
	return Row{Columns: columns, Values: values}
}

// Get retrieves a value by column name
func (r Row) Get(column string) (interface{}, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map returns the row as an unordered column -> value map
func (r Row) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.Columns))
	for i, c := range r.Columns {
		m[c] = r.Values[i]
	}
	return m
}

// MarshalJSON implements json.Marshaler interface.
// The row is written as an object whose keys keep the table's column order.
func (r Row) MarshalJSON() ([]byte, error) {
	return marshalOrdered(r.Columns, r.Values)
}

// String returns a string representation for text output: col=value pairs
func (r Row) String() string {
	var b bytes.Buffer
	for i, c := range r.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		v := r.Values[i]
		if v == nil {
			fmt.Fprintf(&b, "%s=NULL", c)
		} else {
			fmt.Fprintf(&b, "%s=%v", c, v)
		}
	}
	return b.String()
}

func marshalOrdered(keys []string, values []interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(values[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
