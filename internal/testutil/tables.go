package testutil

import (
	"path/filepath"
	"testing"

	"github.com/leengari/tablehub/internal/domain/schema"
)

// DBPath returns a database file path inside a per-test temp directory
func DBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name+".db")
}

// UsersColumns is a users table keyed on its first column
func UsersColumns() []schema.Column {
	return []schema.Column{
		{Name: "id", Type: schema.ColumnTypeInteger, PrimaryKey: true},
		{Name: "username", Type: schema.ColumnTypeText, NotNull: true},
		{Name: "email", Type: schema.ColumnTypeText, Unique: true},
	}
}

// UsersRows is sample data aligned to UsersColumns
func UsersRows() [][]interface{} {
	return [][]interface{}{
		{int64(1), "alice", "alice@example.com"},
		{int64(2), "bob", "bob@example.com"},
		{int64(3), "charlie", "charlie@example.com"},
	}
}

// SongsColumns is a songs table without a declared primary key
func SongsColumns() []schema.Column {
	return []schema.Column{
		{Name: "title", Type: schema.ColumnTypeText},
		{Name: "year", Type: schema.ColumnTypeInteger},
	}
}
