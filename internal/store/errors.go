package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leengari/tablehub/internal/validation"
)

// Kind classifies a store failure; the router maps kinds to HTTP statuses
type Kind string

const (
	KindNotConnected       Kind = "not_connected"
	KindInvalidInput       Kind = "invalid_input"
	KindInvalidIdentifier  Kind = "invalid_identifier"
	KindNotFound           Kind = "not_found"
	KindAlreadyExists      Kind = "already_exists"
	KindConflict           Kind = "conflict"
	KindStorageUnavailable Kind = "storage_unavailable"
	KindUnknown            Kind = "unknown"
)

// Error is the single error type returned by store operations
type Error struct {
	Kind    Kind   // failure class
	Op      string // store operation, e.g. "create_table"
	Table   string // table name (empty for connection-level failures)
	Message string // user-facing message
	Err     error  // underlying engine error, if any
}

func (e *Error) Error() string {
	if e.Err != nil && !strings.Contains(e.Message, e.Err.Error()) {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the Kind of err, KindUnknown for foreign errors
func KindOf(err error) Kind {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is a store error of the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func errNotConnected(op string) *Error {
	return &Error{Kind: KindNotConnected, Op: op, Message: "Not connected to a database."}
}

func errTableNotFound(op, table string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Table: table, Message: fmt.Sprintf("Table '%s' not found", table)}
}

func errTableExists(op, table string) *Error {
	return &Error{Kind: KindAlreadyExists, Op: op, Table: table, Message: fmt.Sprintf("Table '%s' already exists.", table)}
}

func errInvalidInput(op, table, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Table: table, Message: fmt.Sprintf(format, args...)}
}

func errIdentifier(op string, err error) *Error {
	var idErr *validation.IdentifierError
	table := ""
	if errors.As(err, &idErr) && idErr.Kind == "table" {
		table = idErr.Name
	}
	return &Error{Kind: KindInvalidIdentifier, Op: op, Table: table, Message: err.Error(), Err: err}
}

// sqlite result codes the store distinguishes (primary codes, low byte)
const (
	sqliteBusy       = 5
	sqliteLocked     = 6
	sqliteReadOnly   = 8
	sqliteIOErr      = 10
	sqliteCorrupt    = 11
	sqliteFull       = 13
	sqliteCantOpen   = 14
	sqliteConstraint = 19
	sqliteNotADB     = 26
)

// engineError converts an engine failure into a store error at the operation
// boundary. message is the operation-level text ("Failed to create table 'x'").
func engineError(op, table, message string, err error) *Error {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr
	}

	kind := KindUnknown
	var coder interface{ Code() int }
	switch {
	case errors.As(err, &coder):
		switch coder.Code() & 0xff {
		case sqliteConstraint:
			kind = KindConflict
		case sqliteBusy, sqliteLocked, sqliteReadOnly, sqliteIOErr, sqliteCorrupt, sqliteFull, sqliteCantOpen, sqliteNotADB:
			kind = KindStorageUnavailable
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = KindStorageUnavailable
	}

	return &Error{Kind: kind, Op: op, Table: table, Message: message, Err: err}
}
