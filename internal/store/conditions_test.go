package store

import (
	"testing"

	"github.com/leengari/tablehub/internal/testutil"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		clause  string
		col     string
		val     interface{}
		wantErr bool
	}{
		{clause: "title='A'", col: "title", val: "A"},
		{clause: "year = 1999", col: "year", val: int64(1999)},
		{clause: "rating=4.5", col: "rating", val: 4.5},
		{clause: `artist = "Guns N' Roses"`, col: "artist", val: "Guns N' Roses"},
		{clause: "title = 'It''s'", col: "title", val: "It's"},
		{clause: "genre=rock", col: "genre", val: "rock"},
		{clause: "title='a=b'", col: "title", val: "a=b"},
		{clause: "title", wantErr: true},
		{clause: "title=", wantErr: true},
		{clause: "title='open", wantErr: true},
		{clause: "title='a'b'", wantErr: true},
		{clause: "title = NULL", wantErr: true},
		{clause: "1 = 1", wantErr: true},
		{clause: "title = x OR 1", wantErr: true},
		{clause: "title; DROP TABLE songs = 'x'", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.clause, func(t *testing.T) {
			col, val, err := ParseCondition(tt.clause)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %s=%v", col, val)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if col != tt.col || val != tt.val {
				t.Errorf("expected %s=%v (%T), got %s=%v (%T)", tt.col, tt.val, tt.val, col, val, val)
			}
		})
	}
}

func TestParseConditions(t *testing.T) {
	conds, err := ParseConditions([]string{"title='A'", "year=1999"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conds) != 2 || conds["title"] != "A" || conds["year"] != int64(1999) {
		t.Errorf("unexpected conditions %v", conds)
	}

	_, err = ParseConditions([]string{"year=1999", "year=2000"})
	testutil.AssertError(t, err, "conflicting conditions")
	_, err = ParseConditions([]string{"year"})
	testutil.AssertError(t, err, "clause without '='")
}
