package transaction

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// txIDCounter is an atomic counter for generating sequential transaction numbers
var txIDCounter uint64

// ChangeType represents the type of modification
type ChangeType string

const (
	ChangeTypeCreate ChangeType = "CREATE"
	ChangeTypeDrop   ChangeType = "DROP"
	ChangeTypeInsert ChangeType = "INSERT"
	ChangeTypeUpdate ChangeType = "UPDATE"
	ChangeTypeDelete ChangeType = "DELETE"
)

// Change represents one statement applied within a transaction
type Change struct {
	Type         ChangeType
	Table        string
	RowsAffected int64
}

// Transaction is a scoped commit boundary: one per logical store operation.
// It wraps the engine transaction and tags it with an ID used in logs and events.
type Transaction struct {
	ID        string    // Unique transaction identifier
	TxID      uint64    // Sequential transaction number within this process
	Active    bool      // Whether transaction is currently active
	StartTime time.Time // When the transaction began
	Changes   []Change  // Statements applied so far

	tx *sql.Tx
}

// NewTransaction creates an unbound transaction with a unique ID.
// It is used for read paths that only need an ID for tracing.
func NewTransaction() *Transaction {
	return &Transaction{
		ID:        uuid.New().String(),
		TxID:      atomic.AddUint64(&txIDCounter, 1),
		Active:    true,
		StartTime: time.Now(),
		Changes:   make([]Change, 0),
	}
}

// Begin opens an engine transaction on db and wraps it
func Begin(ctx context.Context, db *sql.DB) (*Transaction, error) {
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	tx := NewTransaction()
	tx.tx = sqlTx
	return tx, nil
}

// Exec runs a statement inside the transaction and records the change
func (tx *Transaction) Exec(ctx context.Context, change ChangeType, table, query string, args ...interface{}) (int64, error) {
	if tx.tx == nil || !tx.Active {
		return 0, fmt.Errorf("transaction %s is not active", tx.ID)
	}
	res, err := tx.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	tx.Changes = append(tx.Changes, Change{Type: change, Table: table, RowsAffected: n})
	return n, nil
}

// QueryContext runs a read inside the transaction
func (tx *Transaction) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if tx.tx == nil || !tx.Active {
		return nil, fmt.Errorf("transaction %s is not active", tx.ID)
	}
	return tx.tx.QueryContext(ctx, query, args...)
}

// Prepare creates a statement bound to the transaction
func (tx *Transaction) Prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	if tx.tx == nil || !tx.Active {
		return nil, fmt.Errorf("transaction %s is not active", tx.ID)
	}
	return tx.tx.PrepareContext(ctx, query)
}

// Record notes a change made through a prepared statement
func (tx *Transaction) Record(change ChangeType, table string, rowsAffected int64) {
	tx.Changes = append(tx.Changes, Change{Type: change, Table: table, RowsAffected: rowsAffected})
}

// RowsAffected sums the rows touched by every recorded change of the given type
func (tx *Transaction) RowsAffected(change ChangeType) int64 {
	var total int64
	for _, c := range tx.Changes {
		if c.Type == change {
			total += c.RowsAffected
		}
	}
	return total
}

// Commit commits the engine transaction and closes the scope
func (tx *Transaction) Commit() error {
	if tx.tx == nil || !tx.Active {
		return fmt.Errorf("transaction %s is not active", tx.ID)
	}
	defer tx.Close()
	if err := tx.tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction %s: %w", tx.ID, err)
	}
	return nil
}

// Rollback aborts the engine transaction. Calling it after Commit is a no-op,
// so it can be deferred right after Begin.
func (tx *Transaction) Rollback() {
	if tx.tx == nil || !tx.Active {
		return
	}
	defer tx.Close()
	_ = tx.tx.Rollback()
}

// Close marks the transaction as inactive
func (tx *Transaction) Close() {
	tx.Active = false
}
