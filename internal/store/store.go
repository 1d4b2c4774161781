package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/leengari/tablehub/internal/storage"
	"github.com/leengari/tablehub/internal/validation"
)

// State is the connection state of a Store
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnected    State = "connected"
)

// Status is the success class of a mutation
type Status string

const (
	StatusOK      Status = "ok"
	StatusCreated Status = "created"
)

// Result describes a successful mutation
type Result struct {
	Status       Status `json:"-"`
	Message      string `json:"message"`
	RowsAffected int64  `json:"rows_affected"`
	Skipped      []int  `json:"skipped,omitempty"` // batch positions rejected by best-effort operations
}

// Store is the table/row service over one database handle.
// The handle is acquired by Connect and released by Disconnect; every
// table and row operation requires the Connected state.
type Store struct {
	mu     sync.RWMutex
	opener storage.Opener
	logger *slog.Logger

	db     *sql.DB
	path   string
	dbName string

	observers []Observer
}

// New creates a disconnected store that opens its handle through opener
func New(opener storage.Opener, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		opener:    opener,
		logger:    logger,
		observers: make([]Observer, 0),
	}
}

// Connect opens the database at path. Connecting while connected fails with
// KindConflict unless force is set, in which case the current handle is closed first.
func (s *Store) Connect(ctx context.Context, path string, force bool) (*Result, error) {
	const op = "connect"
	s.logger.Info("Initializing connection to database", "path", path)

	dbName, err := validation.DatabaseName(path)
	if err != nil {
		s.logger.Error("invalid database name", "path", path, "error", err)
		return nil, errIdentifier(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		msg := fmt.Sprintf("Already connected to database %s.", s.dbName)
		s.logger.Warn(msg)
		if !force {
			return nil, &Error{Kind: KindConflict, Op: op, Message: msg}
		}
		s.logger.Info("Force connecting to database", "database", dbName)
		if err := s.closeLocked(); err != nil {
			return nil, engineError(op, "", fmt.Sprintf("Failed to close database connection %s.", s.dbName), err)
		}
	}

	db, err := s.opener.Open(ctx, strings.TrimSpace(path))
	if err != nil {
		if errors.Is(err, storage.ErrDatabaseNotFound) {
			msg := fmt.Sprintf("Database path %s not found.", path)
			s.logger.Error(msg)
			return nil, &Error{Kind: KindNotFound, Op: op, Message: msg, Err: err}
		}
		msg := fmt.Sprintf("Failed to connect to database %s.", dbName)
		s.logger.Error(msg, "error", err)
		return nil, &Error{Kind: KindStorageUnavailable, Op: op, Message: msg, Err: err}
	}

	s.db = db
	s.path = path
	s.dbName = dbName

	if version, err := storage.EngineVersion(ctx, db); err == nil {
		s.logger.Info("SQLite version", "version", version)
	}

	msg := fmt.Sprintf("Successfully connected to database %s.", dbName)
	s.logger.Info(msg)
	s.notify(Event{Type: EventConnect, Data: path})
	return &Result{Status: StatusOK, Message: msg}, nil
}

// Disconnect closes the handle. Disconnecting while disconnected fails with
// KindConflict unless force is set.
func (s *Store) Disconnect(force bool) (*Result, error) {
	const op = "disconnect"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		msg := "Not connected to a database."
		if !force {
			s.logger.Warn("Already disconnected")
			return nil, &Error{Kind: KindConflict, Op: op, Message: msg}
		}
		return &Result{Status: StatusOK, Message: msg}, nil
	}

	name := s.dbName
	s.logger.Info("Terminating connection to database", "database", name)
	if err := s.closeLocked(); err != nil {
		msg := fmt.Sprintf("Failed to close database connection %s.", name)
		s.logger.Error(msg, "error", err)
		return nil, engineError(op, "", msg, err)
	}

	msg := fmt.Sprintf("Database %s connection closed.", name)
	s.logger.Info(msg)
	s.notify(Event{Type: EventDisconnect, Data: name})
	return &Result{Status: StatusOK, Message: msg}, nil
}

// closeLocked releases the handle; caller holds s.mu
func (s *Store) closeLocked() error {
	err := s.db.Close()
	s.db = nil
	s.path = ""
	s.dbName = ""
	return err
}

// Close releases the handle if one is held
func (s *Store) Close() error {
	_, err := s.Disconnect(true)
	return err
}

// State reports whether the store holds a connection
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return StateDisconnected
	}
	return StateConnected
}

// Path returns the path of the connected database, empty when disconnected
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// acquire returns the live handle under the read lock. The release func must
// be called when the operation is done; state transitions wait for it.
func (s *Store) acquire(op string) (*sql.DB, func(), error) {
	s.mu.RLock()
	if s.db == nil {
		s.mu.RUnlock()
		s.logger.Info("Not connected to a database.", "op", op)
		return nil, nil, errNotConnected(op)
	}
	return s.db, s.mu.RUnlock, nil
}

// AddObserver registers an observer to receive store events
func (s *Store) AddObserver(observer Observer) {
	s.observers = append(s.observers, observer)
}

// RemoveObserver unregisters an observer
func (s *Store) RemoveObserver(observer Observer) {
	for i, o := range s.observers {
		if o == observer {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// notify sends an event to all registered observers
func (s *Store) notify(event Event) {
	event.Timestamp = time.Now()
	for _, observer := range s.observers {
		observer.OnEvent(event)
	}
}
