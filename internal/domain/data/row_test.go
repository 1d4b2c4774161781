package data

import (
	"encoding/json"
	"testing"
)

func TestRecordPreservesKeyOrder(t *testing.T) {
	var rec Record
	body := `{"title": "A", "artist": "B", "year": 1999, "score": 7.5, "explicit": false, "notes": null}`
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	wantKeys := []string{"title", "artist", "year", "score", "explicit", "notes"}
	if len(rec.Keys) != len(wantKeys) {
		t.Fatalf("expected %d keys, got %v", len(wantKeys), rec.Keys)
	}
	for i, k := range wantKeys {
		if rec.Keys[i] != k {
			t.Errorf("key %d: expected %s, got %s", i, k, rec.Keys[i])
		}
	}

	if v, _ := rec.Get("year"); v != int64(1999) {
		t.Errorf("expected int64 1999, got %T %v", v, v)
	}
	if v, _ := rec.Get("score"); v != 7.5 {
		t.Errorf("expected 7.5, got %T %v", v, v)
	}
	if v, ok := rec.Get("notes"); !ok || v != nil {
		t.Errorf("expected explicit nil for notes, got %v (present=%v)", v, ok)
	}
}

func TestRecordDuplicateKeyLastWins(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"a": 1, "b": 2, "a": 3}`), &rec); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if rec.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", rec.Len())
	}
	if v, _ := rec.Get("a"); v != int64(3) {
		t.Errorf("expected a=3, got %v", v)
	}
}

func TestRecordRejectsNonObject(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`["a", "b"]`), &rec); err == nil {
		t.Error("expected error for array input")
	}
}

func TestRowMarshalKeepsColumnOrder(t *testing.T) {
	row := NewRow([]string{"title", "artist", "year"}, []interface{}{"A", "B", int64(1999)})

	out, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if got, want := string(out), `{"title":"A","artist":"B","year":1999}`; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	if got, want := row.String(), "title=A, artist=B, year=1999"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestValuesUnmarshal(t *testing.T) {
	var rows []Values
	if err := json.Unmarshal([]byte(`[[1, "A", 2.5], [2, null, 3]]`), &rows); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != int64(1) || rows[0][2] != 2.5 {
		t.Errorf("unexpected first row %v", rows[0])
	}
	if rows[1][1] != nil || rows[1][2] != int64(3) {
		t.Errorf("unexpected second row %v", rows[1])
	}
}
