package transaction

import (
	"testing"
)

func TestNewTransactionIDs(t *testing.T) {
	tx1 := NewTransaction()
	tx2 := NewTransaction()

	if tx1.ID == "" || tx2.ID == "" {
		t.Fatal("expected non-empty transaction IDs")
	}
	if tx1.ID == tx2.ID {
		t.Errorf("expected unique IDs, both were %s", tx1.ID)
	}
	if tx2.TxID <= tx1.TxID {
		t.Errorf("expected increasing TxID, got %d then %d", tx1.TxID, tx2.TxID)
	}
	if !tx1.Active {
		t.Error("expected new transaction to be active")
	}
}

func TestUnboundTransactionRejectsWork(t *testing.T) {
	tx := NewTransaction()

	if _, err := tx.Exec(t.Context(), ChangeTypeInsert, "songs", "INSERT INTO songs VALUES (1)"); err == nil {
		t.Error("expected error executing on unbound transaction")
	}
	if err := tx.Commit(); err == nil {
		t.Error("expected error committing unbound transaction")
	}

	// must not panic
	tx.Rollback()
}

func TestRowsAffectedByType(t *testing.T) {
	tx := NewTransaction()
	tx.Record(ChangeTypeInsert, "songs", 2)
	tx.Record(ChangeTypeInsert, "songs", 3)
	tx.Record(ChangeTypeDelete, "songs", 1)

	if got := tx.RowsAffected(ChangeTypeInsert); got != 5 {
		t.Errorf("expected 5 inserted rows, got %d", got)
	}
	if got := tx.RowsAffected(ChangeTypeUpdate); got != 0 {
		t.Errorf("expected 0 updated rows, got %d", got)
	}

	tx.Close()
	if tx.Active {
		t.Error("expected transaction to be inactive after Close")
	}
}
