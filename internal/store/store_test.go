package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/leengari/tablehub/internal/storage"
	"github.com/leengari/tablehub/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestStore returns a store connected to a fresh database file
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(storage.NewSQLiteOpener(true), discardLogger())
	if _, err := s.Connect(t.Context(), testutil.DBPath(t, "music"), false); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConnectDisconnect(t *testing.T) {
	s := New(storage.NewSQLiteOpener(true), discardLogger())
	path := testutil.DBPath(t, "music")

	if s.State() != StateDisconnected {
		t.Fatalf("expected disconnected store, got %s", s.State())
	}

	res, err := s.Connect(t.Context(), path, false)
	testutil.AssertNoError(t, err, "connect")
	testutil.AssertContains(t, res.Message, "music", "connect message")
	if s.State() != StateConnected || s.Path() != path {
		t.Errorf("expected connected to %s, got %s at %q", path, s.State(), s.Path())
	}

	if _, err := s.Connect(t.Context(), path, false); !IsKind(err, KindConflict) {
		t.Errorf("second connect: expected conflict, got %v", err)
	}
	if _, err := s.Connect(t.Context(), path, true); err != nil {
		t.Errorf("forced connect: %v", err)
	}

	_, err = s.Disconnect(false)
	testutil.AssertNoError(t, err, "disconnect")
	if s.State() != StateDisconnected || s.Path() != "" {
		t.Errorf("expected disconnected store after Disconnect")
	}

	if _, err := s.Disconnect(false); !IsKind(err, KindConflict) {
		t.Errorf("second disconnect: expected conflict, got %v", err)
	}
	if _, err := s.Disconnect(true); err != nil {
		t.Errorf("forced disconnect: %v", err)
	}
}

func TestConnectErrors(t *testing.T) {
	t.Run("missing file without create", func(t *testing.T) {
		s := New(storage.NewSQLiteOpener(false), discardLogger())
		_, err := s.Connect(t.Context(), filepath.Join(t.TempDir(), "absent.db"), false)
		if !IsKind(err, KindNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("invalid database name", func(t *testing.T) {
		s := New(storage.NewSQLiteOpener(true), discardLogger())
		_, err := s.Connect(t.Context(), filepath.Join(t.TempDir(), "9-lives.db"), false)
		if !IsKind(err, KindInvalidIdentifier) {
			t.Errorf("expected invalid identifier, got %v", err)
		}
		if s.State() != StateDisconnected {
			t.Errorf("failed connect must leave the store disconnected")
		}
	})
}

func TestOperationsRequireConnection(t *testing.T) {
	s := New(storage.NewSQLiteOpener(true), discardLogger())
	ctx := t.Context()

	if _, err := s.ListTables(ctx); !IsKind(err, KindNotConnected) {
		t.Errorf("ListTables: expected not connected, got %v", err)
	}
	if _, err := s.GetRows(ctx, "songs", nil); !IsKind(err, KindNotConnected) {
		t.Errorf("GetRows: expected not connected, got %v", err)
	}
	if _, err := s.InsertRows(ctx, "songs", [][]interface{}{{"A"}}); !IsKind(err, KindNotConnected) {
		t.Errorf("InsertRows: expected not connected, got %v", err)
	}
	if s.TableExists(ctx, "songs") {
		t.Errorf("TableExists must report false when disconnected")
	}
}
