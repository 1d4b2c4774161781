package schema

import "strings"

// Table is the resolved shape of a stored table
type Table struct {
	Name    string
	Columns []Column
}

// QuoteIdentifier wraps a validated identifier in double quotes.
// It does not escape anything: names must already match the identifier pattern.
func QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

// ColumnNames returns the column names in declaration order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of a column, matching names case-insensitively
// as SQLite does. It returns -1 when there is no such column.
func (t *Table) ColumnIndex(name string) int {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return i
		}
	}
	return -1
}

// Column looks a column up by name, ignoring case
func (t *Table) Column(name string) (*Column, bool) {
	if i := t.ColumnIndex(name); i >= 0 {
		return &t.Columns[i], true
	}
	return nil, false
}

// PrimaryKeyColumns returns every column flagged as part of the primary key
func (t *Table) PrimaryKeyColumns() []Column {
	var pks []Column
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pks = append(pks, c)
		}
	}
	return pks
}
