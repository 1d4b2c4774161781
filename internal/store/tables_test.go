package store

import (
	"database/sql"
	"testing"

	"github.com/leengari/tablehub/internal/domain/schema"
	"github.com/leengari/tablehub/internal/storage"
	"github.com/leengari/tablehub/internal/testutil"
)

func TestCreateAndDropTable(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	res, err := s.CreateTable(ctx, "Users", testutil.UsersColumns(), false)
	testutil.AssertNoError(t, err, "create")
	if res.Status != StatusCreated {
		t.Errorf("expected created status, got %s", res.Status)
	}
	if !s.TableExists(ctx, "users") {
		t.Fatalf("expected table to exist after create")
	}

	names, err := s.ListTables(ctx)
	testutil.AssertNoError(t, err, "list")
	if len(names) != 1 || names[0] != "users" {
		t.Errorf("expected [users], got %v", names)
	}

	_, err = s.DropTable(ctx, "users")
	testutil.AssertNoError(t, err, "drop")
	if s.TableExists(ctx, "users") {
		t.Errorf("expected table to be gone after drop")
	}
}

func TestCreateTableErrors(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	tests := []struct {
		name    string
		table   string
		columns []schema.Column
		want    Kind
	}{
		{"no columns", "empty", nil, KindInvalidInput},
		{"bad table name", "songs;drop", testutil.SongsColumns(), KindInvalidIdentifier},
		{"reserved table name", "sqlite_stats", testutil.SongsColumns(), KindInvalidIdentifier},
		{"bad column name", "songs", []schema.Column{{Name: "ti tle", Type: schema.ColumnTypeText}}, KindInvalidIdentifier},
		{"bad column type", "songs", []schema.Column{{Name: "title", Type: "VARCHAR(10)"}}, KindInvalidInput},
		{"duplicate column", "songs", []schema.Column{{Name: "a", Type: schema.ColumnTypeText}, {Name: "A", Type: schema.ColumnTypeText}}, KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateTable(ctx, tt.table, tt.columns, false)
			if !IsKind(err, tt.want) {
				t.Errorf("expected %s, got %v", tt.want, err)
			}
		})
	}

	names, err := s.ListTables(ctx)
	testutil.AssertNoError(t, err, "list")
	testutil.AssertRowCount(t, len(names), 0, "no table may be created by a failed call")
}

func TestCreateTableEmptyColumnsDisconnected(t *testing.T) {
	s := New(nil, discardLogger())
	if _, err := s.CreateTable(t.Context(), "songs", nil, false); !IsKind(err, KindInvalidInput) {
		t.Errorf("empty columns must be rejected before touching storage, got %v", err)
	}
}

func TestCreateTableExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	_, err := s.CreateTable(ctx, "songs", testutil.SongsColumns(), false)
	testutil.AssertNoError(t, err, "create")
	_, err = s.InsertRows(ctx, "songs", [][]interface{}{{"A", int64(1999)}})
	testutil.AssertNoError(t, err, "insert")

	_, err = s.CreateTable(ctx, "songs", testutil.SongsColumns(), false)
	if !IsKind(err, KindAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
	testutil.AssertContains(t, err.Error(), "Table 'songs' already exists", "message")

	cols := []schema.Column{{Name: "name", Type: schema.ColumnTypeText}}
	_, err = s.CreateTable(ctx, "songs", cols, true)
	testutil.AssertNoError(t, err, "forced create")

	got, err := s.TableSchema(ctx, "songs")
	testutil.AssertNoError(t, err, "schema")
	if len(got) != 1 || got[0].Name != "name" {
		t.Errorf("expected recreated schema [name], got %+v", got)
	}
	rows, err := s.Table(ctx, "songs")
	testutil.AssertNoError(t, err, "table")
	testutil.AssertRowCount(t, len(rows), 0, "forced recreate")
}

func TestDropMissingTable(t *testing.T) {
	s := newTestStore(t)
	_, err := s.DropTable(t.Context(), "missing_table")
	if !IsKind(err, KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err.Error() != "Table 'missing_table' not found" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestTableSchema(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	_, err := s.CreateTable(ctx, "users", testutil.UsersColumns(), false)
	testutil.AssertNoError(t, err, "create")

	cols, err := s.TableSchema(ctx, "users")
	testutil.AssertNoError(t, err, "schema")
	testutil.AssertColumnCount(t, len(cols), 3, "users schema")

	if cols[0].Name != "id" || cols[0].Type != schema.ColumnTypeInteger || !cols[0].PrimaryKey {
		t.Errorf("unexpected id column %+v", cols[0])
	}
	if cols[1].Name != "username" || !cols[1].NotNull {
		t.Errorf("unexpected username column %+v", cols[1])
	}

	if _, err := s.TableSchema(ctx, "nope"); !IsKind(err, KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestTables(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	_, err := s.CreateTable(ctx, "users", testutil.UsersColumns(), false)
	testutil.AssertNoError(t, err, "create users")
	_, err = s.InsertRows(ctx, "users", testutil.UsersRows())
	testutil.AssertNoError(t, err, "insert users")
	_, err = s.CreateTable(ctx, "songs", testutil.SongsColumns(), false)
	testutil.AssertNoError(t, err, "create songs")

	all, err := s.Tables(ctx)
	testutil.AssertNoError(t, err, "tables")
	if len(all) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(all))
	}

	users := all["users"]
	if len(users.Columns) != 3 || users.Columns[0] != "id" {
		t.Errorf("unexpected users columns %v", users.Columns)
	}
	testutil.AssertRowCount(t, len(users.Rows), 3, "users rows")
	testutil.AssertValue(t, users.Rows[0][1], "alice", "first username")
	testutil.AssertRowCount(t, len(all["songs"].Rows), 0, "songs rows")
}

func TestTablesSkipsInvalidNames(t *testing.T) {
	path := testutil.DBPath(t, "legacy")
	db, err := sql.Open(storage.DriverName, path)
	testutil.AssertNoError(t, err, "open")
	for _, stmt := range []string{
		`CREATE TABLE "odd""name" (x TEXT)`,
		`CREATE TABLE "with space" (x TEXT)`,
		`CREATE TABLE songs (title TEXT)`,
		`INSERT INTO songs VALUES ('A')`,
	} {
		_, err := db.Exec(stmt)
		testutil.AssertNoError(t, err, stmt)
	}
	testutil.AssertNoError(t, db.Close(), "close")

	s := New(storage.NewSQLiteOpener(false), discardLogger())
	_, err = s.Connect(t.Context(), path, false)
	testutil.AssertNoError(t, err, "connect")
	t.Cleanup(func() { s.Close() })

	all, err := s.Tables(t.Context())
	testutil.AssertNoError(t, err, "tables")
	if len(all) != 1 {
		t.Fatalf("expected only songs, got %v", all)
	}
	testutil.AssertRowCount(t, len(all["songs"].Rows), 1, "songs rows")

	_, err = s.Table(t.Context(), `odd"name`)
	testutil.AssertError(t, err, "table lookup with quote")
}
