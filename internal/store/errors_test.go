package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type codedError struct{ code int }

func (e codedError) Error() string { return fmt.Sprintf("engine error %d", e.code) }
func (e codedError) Code() int     { return e.code }

func TestEngineErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"unique constraint", codedError{2067}, KindConflict},
		{"not null constraint", codedError{1299}, KindConflict},
		{"busy", codedError{5}, KindStorageUnavailable},
		{"io error", codedError{266}, KindStorageUnavailable},
		{"syntax error", codedError{1}, KindUnknown},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), KindStorageUnavailable},
		{"plain error", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engineError("insert_row", "songs", "Failed.", tt.err)
			if got.Kind != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.Kind)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("expected the engine error to stay reachable through Unwrap")
			}
		})
	}
}

func TestEngineErrorKeepsStoreErrors(t *testing.T) {
	inner := errTableNotFound("get_rows", "songs")
	got := engineError("get_rows", "songs", "Failed.", fmt.Errorf("wrapped: %w", inner))
	if got != inner {
		t.Errorf("expected the original store error to pass through")
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(errors.New("x")) != KindUnknown {
		t.Errorf("foreign errors must be unknown")
	}
	err := fmt.Errorf("ctx: %w", errTableExists("create_table", "songs"))
	if KindOf(err) != KindAlreadyExists {
		t.Errorf("expected already exists through wrapping, got %s", KindOf(err))
	}
	if IsKind(nil, KindUnknown) {
		t.Errorf("nil is not an error of any kind")
	}
	if got := errTableNotFound("drop_table", "missing_table").Error(); got != "Table 'missing_table' not found" {
		t.Errorf("unexpected message %q", got)
	}
}
