package store

import (
	"context"
	"log/slog"
)

// LoggingObserver logs every store event using structured logging
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates a new logging observer; nil uses slog.Default()
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

// OnEvent implements the Observer interface
func (lo *LoggingObserver) OnEvent(event Event) {
	level := slog.LevelInfo
	if event.Type == EventRowSkipped {
		level = slog.LevelWarn
	}
	lo.logger.Log(context.Background(), level, "store_event",
		"event", event.Type,
		"tx_id", event.TxID,
		"table", event.Table,
		"timestamp", event.Timestamp,
		"data", event.Data,
	)
}
