package store

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/leengari/tablehub/internal/testutil"
)

// MockObserver is a test observer that records events
type MockObserver struct {
	Events []Event
}

func (m *MockObserver) OnEvent(event Event) {
	m.Events = append(m.Events, event)
}

func (m *MockObserver) types() []EventType {
	types := make([]EventType, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.Type
	}
	return types
}

func TestAddObserver(t *testing.T) {
	s := New(nil, nil)
	observer := &MockObserver{}

	s.AddObserver(observer)

	if len(s.observers) != 1 {
		t.Errorf("Expected 1 observer, got %d", len(s.observers))
	}
}

func TestRemoveObserver(t *testing.T) {
	s := New(nil, nil)
	observer := &MockObserver{}

	s.AddObserver(observer)
	s.RemoveObserver(observer)

	if len(s.observers) != 0 {
		t.Errorf("Expected 0 observers, got %d", len(s.observers))
	}
}

func TestNotifyWithNoObservers(t *testing.T) {
	s := New(nil, nil)

	// Should not panic
	s.notify(Event{Type: EventConnect, TxID: "test-tx"})
}

func TestEventTimestamp(t *testing.T) {
	s := New(nil, nil)
	observer := &MockObserver{}
	s.AddObserver(observer)

	s.notify(Event{Type: EventConnect})

	if observer.Events[0].Timestamp.IsZero() {
		t.Error("Expected timestamp to be set, got zero value")
	}
}

func TestStoreEmitsLifecycleEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	observer := &MockObserver{}
	s.AddObserver(observer)

	_, err := s.CreateTable(ctx, "users", testutil.UsersColumns(), false)
	testutil.AssertNoError(t, err, "create")
	_, err = s.InsertRows(ctx, "users", [][]interface{}{
		{int64(1), "alice", "alice@example.com"},
		{int64(2)},
	})
	testutil.AssertNoError(t, err, "insert")
	_, err = s.UpdateRows(ctx, "users", [][]interface{}{{int64(1), "al", "al@example.com"}})
	testutil.AssertNoError(t, err, "update")
	_, err = s.DeleteRow(ctx, "users", int64(1))
	testutil.AssertNoError(t, err, "delete")
	_, err = s.DropTable(ctx, "users")
	testutil.AssertNoError(t, err, "drop")

	want := []EventType{
		EventTableCreated, EventRowSkipped, EventRowsInserted,
		EventRowsUpdated, EventRowsDeleted, EventTableDropped,
	}
	got := observer.types()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	if observer.Events[1].Data != 1 {
		t.Errorf("expected skipped row index 1, got %v", observer.Events[1].Data)
	}
	for _, e := range observer.Events {
		if e.TxID == "" || e.Table != "users" {
			t.Errorf("event %s missing transaction or table: %+v", e.Type, e)
		}
	}
	if observer.Events[0].TxID == observer.Events[2].TxID {
		t.Errorf("separate operations must use separate transactions")
	}
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	observer := NewLoggingObserver(logger)

	observer.OnEvent(Event{Type: EventRowsInserted, TxID: "tx-1", Table: "songs", Data: int64(3)})
	observer.OnEvent(Event{Type: EventRowSkipped, TxID: "tx-1", Table: "songs", Data: 2})

	out := buf.String()
	for _, want := range []string{"store_event", "rows_inserted", "tx-1", "songs", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %q, got:\n%s", want, out)
		}
	}
}
