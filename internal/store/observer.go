package store

import "time"

// EventType represents the store operation that produced an event
type EventType string

const (
	EventConnect      EventType = "connect"
	EventDisconnect   EventType = "disconnect"
	EventTableCreated EventType = "table_created"
	EventTableDropped EventType = "table_dropped"
	EventRowsInserted EventType = "rows_inserted"
	EventRowsUpdated  EventType = "rows_updated"
	EventRowsDeleted  EventType = "rows_deleted"
	EventRowSkipped   EventType = "row_skipped"
)

// Event represents a completed state change in the store
type Event struct {
	Type      EventType   // Type of event
	TxID      string      // Scoped transaction ID for tracing (empty for connection events)
	Table     string      // Table the event concerns
	Timestamp time.Time   // When the event occurred
	Data      interface{} // Event-specific data (rows affected, skipped row index, path)
}

// Observer interface for event subscribers
type Observer interface {
	OnEvent(event Event)
}
