package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/leengari/tablehub/internal/domain/data"
	"github.com/leengari/tablehub/internal/domain/schema"
)

// querier is satisfied by *sql.DB and *transaction.Transaction
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// tableExists checks sqlite_master for a table; name must already be validated
func tableExists(ctx context.Context, q querier, name string) (bool, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", name)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	exists := rows.Next()
	return exists, rows.Err()
}

// listTables returns user tables, sorted, skipping the engine's sqlite_* tables
func listTables(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite\\_%' ESCAPE '\\' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// tableInfo resolves the columns of a table from PRAGMA table_info.
// A table without columns resolves to nil.
func tableInfo(ctx context.Context, q querier, name string) (*schema.Table, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", schema.QuoteIdentifier(name)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type pkColumn struct {
		pos   int
		order int64
	}
	tbl := &schema.Table{Name: name}
	for rows.Next() {
		var (
			cid      int64
			colName  string
			declType string
			notNull  int64
			dflt     interface{}
			pk       int64
		)
		if err := rows.Scan(&cid, &colName, &declType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		tbl.Columns = append(tbl.Columns, schema.Column{
			Name:       colName,
			Type:       schema.ColumnType(strings.ToUpper(declType)),
			PrimaryKey: pk > 0,
			NotNull:    notNull != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tbl.Columns) == 0 {
		return nil, nil
	}
	return tbl, nil
}

// scanRows reads every row of a result set into ordered rows
func scanRows(rows *sql.Rows) ([]data.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]data.Row, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			// blobs are carried as text
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result = append(result, data.NewRow(columns, values))
	}
	return result, rows.Err()
}

// selectRows runs a SELECT and scans the result
func selectRows(ctx context.Context, q querier, query string, args ...interface{}) ([]data.Row, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// bindValue converts a decoded value into something the driver can bind.
// Booleans are stored as integers; nested JSON is stored as its text.
func bindValue(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case nil, string, int64, float64, []byte:
		return x, nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float32:
		return float64(x), nil
	case time.Time:
		return x.Format(time.RFC3339), nil
	case json.Number:
		return x.String(), nil
	case []interface{}, map[string]interface{}, data.Record:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return fmt.Sprint(v), nil
}

func bindValues(values []interface{}) ([]interface{}, error) {
	out := make([]interface{}, len(values))
	for i, v := range values {
		b, err := bindValue(v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

// whereClause renders "a" = ? AND "b" = ? for the given columns, sorted so
// statement text is stable; args follow the same order.
func whereClause(filters map[string]interface{}) (string, []interface{}, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	cols := make([]string, 0, len(filters))
	for c := range filters {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	parts := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, c := range cols {
		parts[i] = schema.QuoteIdentifier(c) + " = ?"
		v, err := bindValue(filters[c])
		if err != nil {
			return "", nil, err
		}
		args[i] = v
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = schema.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
