package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leengari/tablehub/internal/validation"
)

// ColumnType is the declared storage type of a column
type ColumnType string

const (
	ColumnTypeInteger ColumnType = "INTEGER"
	ColumnTypeReal    ColumnType = "REAL"
	ColumnTypeText    ColumnType = "TEXT"
	ColumnTypeBlob    ColumnType = "BLOB" // carried as text
)

// typeAliases maps the type names clients tend to send onto the fixed type set
var typeAliases = map[string]ColumnType{
	"INTEGER":  ColumnTypeInteger,
	"INT":      ColumnTypeInteger,
	"BIGINT":   ColumnTypeInteger,
	"BOOLEAN":  ColumnTypeInteger,
	"BOOL":     ColumnTypeInteger,
	"REAL":     ColumnTypeReal,
	"FLOAT":    ColumnTypeReal,
	"DOUBLE":   ColumnTypeReal,
	"NUMERIC":  ColumnTypeReal,
	"TEXT":     ColumnTypeText,
	"STRING":   ColumnTypeText,
	"VARCHAR":  ColumnTypeText,
	"DATETIME": ColumnTypeText,
	"DATE":     ColumnTypeText,
	"BLOB":     ColumnTypeBlob,
}

// ParseColumnType resolves a declared type name (case-insensitive, size
// suffixes such as VARCHAR(255) ignored) to one of the fixed column types.
func ParseColumnType(name string) (ColumnType, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if i := strings.Index(upper, "("); i >= 0 {
		upper = strings.TrimSpace(upper[:i])
	}
	if t, ok := typeAliases[upper]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unsupported column type %q", name)
}

// Column describes one column of a table
type Column struct {
	Name       string     `json:"name"`
	Type       ColumnType `json:"type"`
	PrimaryKey bool       `json:"primary_key,omitempty"`
	NotNull    bool       `json:"not_null,omitempty"`
	Unique     bool       `json:"unique,omitempty"`
}

// Validate checks the column name against the identifier pattern and the type
// against the fixed type set.
func (c Column) Validate() error {
	if err := validation.ValidateColumnName(c.Name); err != nil {
		return err
	}
	if _, ok := typeAliases[string(c.Type)]; !ok {
		return fmt.Errorf("column %s: unsupported column type %q", c.Name, c.Type)
	}
	return nil
}

// Definition renders the column for a CREATE TABLE statement.
// The name is quoted; callers must Validate first.
func (c Column) Definition() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", QuoteIdentifier(c.Name), c.Type)
	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
	}
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if c.Unique {
		b.WriteString(" UNIQUE")
	}
	return b.String()
}

// ParseColumnDef parses a textual definition such as "title TEXT NOT NULL".
// Only a name, a type and the PRIMARY KEY / NOT NULL / UNIQUE flags are
// understood; anything else is rejected rather than passed to the engine.
func ParseColumnDef(def string) (Column, error) {
	fields := strings.Fields(def)
	if len(fields) == 0 {
		return Column{}, fmt.Errorf("empty column definition")
	}

	col := Column{Name: strings.ToLower(fields[0]), Type: ColumnTypeText}
	if err := validation.ValidateColumnName(col.Name); err != nil {
		return Column{}, err
	}
	if len(fields) == 1 {
		return col, nil
	}

	t, err := ParseColumnType(fields[1])
	if err != nil {
		return Column{}, fmt.Errorf("column %s: %w", col.Name, err)
	}
	col.Type = t

	rest := fields[2:]
	for i := 0; i < len(rest); i++ {
		switch strings.ToUpper(rest[i]) {
		case "PRIMARY":
			if i+1 >= len(rest) || strings.ToUpper(rest[i+1]) != "KEY" {
				return Column{}, fmt.Errorf("column %s: expected KEY after PRIMARY", col.Name)
			}
			col.PrimaryKey = true
			i++
		case "NOT":
			if i+1 >= len(rest) || strings.ToUpper(rest[i+1]) != "NULL" {
				return Column{}, fmt.Errorf("column %s: expected NULL after NOT", col.Name)
			}
			col.NotNull = true
			i++
		case "UNIQUE":
			col.Unique = true
		default:
			return Column{}, fmt.Errorf("column %s: unsupported constraint %q", col.Name, rest[i])
		}
	}
	return col, nil
}

// ColumnSpec is a client-supplied column: either a definition string or an object
type ColumnSpec struct {
	Column
}

// UnmarshalJSON accepts "name TYPE ..." strings as well as column objects
func (s *ColumnSpec) UnmarshalJSON(b []byte) error {
	var def string
	if err := json.Unmarshal(b, &def); err == nil {
		col, err := ParseColumnDef(def)
		if err != nil {
			return err
		}
		s.Column = col
		return nil
	}

	var raw struct {
		Name       string `json:"name"`
		Type       string `json:"type"`
		PrimaryKey bool   `json:"primary_key"`
		NotNull    bool   `json:"not_null"`
		Unique     bool   `json:"unique"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("column must be a definition string or an object: %w", err)
	}
	col := Column{Name: strings.ToLower(strings.TrimSpace(raw.Name)), Type: ColumnTypeText, PrimaryKey: raw.PrimaryKey, NotNull: raw.NotNull, Unique: raw.Unique}
	if err := validation.ValidateColumnName(col.Name); err != nil {
		return err
	}
	if raw.Type != "" {
		t, err := ParseColumnType(raw.Type)
		if err != nil {
			return fmt.Errorf("column %s: %w", raw.Name, err)
		}
		col.Type = t
	}
	s.Column = col
	return nil
}

// Columns unwraps a list of specs
func Columns(specs []ColumnSpec) []Column {
	cols := make([]Column, len(specs))
	for i, s := range specs {
		cols[i] = s.Column
	}
	return cols
}
