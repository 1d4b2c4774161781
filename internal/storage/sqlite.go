package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/glebarez/go-sqlite"
)

// DriverName is the database/sql driver registered by glebarez/go-sqlite
const DriverName = "sqlite"

// ErrDatabaseNotFound is returned when the file is missing and creation is disabled
var ErrDatabaseNotFound = errors.New("database file not found")

// Opener opens the single database handle owned by the table store
type Opener interface {
	Open(ctx context.Context, path string) (*sql.DB, error)
}

// SQLiteOpener opens file-backed SQLite databases
type SQLiteOpener struct {
	// CreateIfMissing creates the file (and its directory) when it does not exist
	CreateIfMissing bool
	// BusyTimeoutMS is passed to the busy_timeout pragma
	BusyTimeoutMS int
}

// NewSQLiteOpener returns an opener with the defaults used by the server
func NewSQLiteOpener(createIfMissing bool) *SQLiteOpener {
	return &SQLiteOpener{CreateIfMissing: createIfMissing, BusyTimeoutMS: 5000}
}

// Open opens path and verifies the connection.
// The pool is limited to one connection: the process shares a single session.
func (o *SQLiteOpener) Open(ctx context.Context, path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !o.CreateIfMissing {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, path)
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		slog.Info("Creating database file", "path", path)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)", path, o.BusyTimeoutMS)
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	return db, nil
}

// EngineVersion reports the SQLite library version behind db
func EngineVersion(ctx context.Context, db *sql.DB) (string, error) {
	var version string
	if err := db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return "", err
	}
	return version, nil
}
