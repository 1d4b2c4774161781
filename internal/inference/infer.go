package inference

import (
	"time"

	"github.com/leengari/tablehub/internal/domain/data"
	"github.com/leengari/tablehub/internal/domain/schema"
	"github.com/leengari/tablehub/internal/validation"
)

// Kind is the coarse value type observed in a column
type Kind string

const (
	KindInteger  Kind = "integer"
	KindDatetime Kind = "datetime"
	KindBoolean  Kind = "boolean"
	KindFloat    Kind = "float"
	KindString   Kind = "string"
)

// ColumnType maps the kind onto a declared storage type
func (k Kind) ColumnType() schema.ColumnType {
	switch k {
	case KindInteger, KindBoolean:
		return schema.ColumnTypeInteger
	case KindFloat:
		return schema.ColumnTypeReal
	default:
		return schema.ColumnTypeText
	}
}

// priority is the order kinds are tried in; the first one every value fits wins
var priority = []Kind{KindInteger, KindDatetime, KindBoolean, KindFloat}

// InferredColumn is a column together with the kind it was inferred from
type InferredColumn struct {
	schema.Column
	Kind Kind
}

// InferColumns derives one column per header entry from the sampled rows.
// Rows may be shorter than the header; missing cells count as NULL.
func InferColumns(header []string, rows [][]interface{}) []InferredColumn {
	if len(header) == 0 {
		return nil
	}

	names := NormalizeNames(header)
	cols := make([]InferredColumn, len(header))
	for i, name := range names {
		kind := inferKind(rows, i)
		cols[i] = InferredColumn{
			Column: schema.Column{Name: name, Type: kind.ColumnType()},
			Kind:   kind,
		}
	}
	return cols
}

// InferRecords aligns records on the union of their keys (first-seen order)
// and infers columns from the aligned rows. A record missing a key yields NULL.
func InferRecords(records []data.Record) ([]string, [][]interface{}, []InferredColumn) {
	var header []string
	index := make(map[string]int)
	for _, rec := range records {
		for _, k := range rec.Keys {
			if _, ok := index[k]; !ok {
				index[k] = len(header)
				header = append(header, k)
			}
		}
	}

	rows := make([][]interface{}, len(records))
	for r, rec := range records {
		row := make([]interface{}, len(header))
		for i, k := range rec.Keys {
			row[index[k]] = rec.Values[i]
		}
		rows[r] = row
	}

	return header, rows, InferColumns(header, rows)
}

// Columns strips the inferred kinds
func Columns(inferred []InferredColumn) []schema.Column {
	cols := make([]schema.Column, len(inferred))
	for i, c := range inferred {
		cols[i] = c.Column
	}
	return cols
}

func inferKind(rows [][]interface{}, col int) Kind {
	var observed []Kind
	for _, row := range rows {
		if col >= len(row) || row[col] == nil {
			continue
		}
		observed = append(observed, classify(row[col]))
	}
	if len(observed) == 0 {
		return KindString
	}

	for _, candidate := range priority {
		if allFit(observed, candidate) {
			return candidate
		}
	}
	return KindString
}

func allFit(observed []Kind, candidate Kind) bool {
	for _, k := range observed {
		if k == candidate {
			continue
		}
		// integers widen into floats
		if candidate == KindFloat && k == KindInteger {
			continue
		}
		return false
	}
	return true
}

// classify reports the kind of a single non-nil value
func classify(v interface{}) Kind {
	switch x := v.(type) {
	case bool:
		return KindBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInteger
	case float32:
		return KindFloat
	case float64:
		return KindFloat
	case time.Time:
		return KindDatetime
	case string:
		if validation.IsDateTime(x) {
			return KindDatetime
		}
		return KindString
	}
	return KindString
}
