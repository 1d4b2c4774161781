package validation

import (
	"errors"
	"testing"
)

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"songs", "songs", false},
		{"  Top Songs ", "top_songs", false},
		{"Billboard\tRankings", "billboard_rankings", false},
		{"_private", "_private", false},
		{"2024_chart", "", true},
		{"songs; DROP TABLE x", "", true},
		{"songs--", "", true},
		{"sqlite_master", "", true},
		{"", "", true},
		{"   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ValidateTableName(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got name %q", tt.input, got)
				}
				var idErr *IdentifierError
				if !errors.As(err, &idErr) {
					t.Errorf("expected *IdentifierError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestValidateColumnName(t *testing.T) {
	if err := ValidateColumnName("artist_name"); err != nil {
		t.Errorf("expected valid column, got %v", err)
	}
	if err := ValidateColumnName("artist name"); err == nil {
		t.Error("expected error for column with space")
	}
	if err := ValidateColumnName(`a" TEXT); --`); err == nil {
		t.Error("expected error for column with quote")
	}
}

func TestDatabaseName(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"data/music.db", "music", false},
		{"src/database/database", "database", false},
		{"/tmp/MyMusic.sqlite3", "my_music", false},
		{"/tmp/2024.db", "", true},
		{"/tmp/my-music.db", "", true},
	}

	for _, tt := range tests {
		got, err := DatabaseName(tt.path)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got %q", tt.path, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.path, tt.want, got)
		}
	}
}

func TestIsDateTime(t *testing.T) {
	valid := []string{"2024-01-13", "2024-01-13 14:30:00", "2024-01-13T14:30:00Z", "2024-01-13 14:30"}
	for _, v := range valid {
		if !IsDateTime(v) {
			t.Errorf("expected %q to be a datetime", v)
		}
	}

	invalid := []string{"", "today", "13/01/2024", "2024-13-01", "12345678901"}
	for _, v := range invalid {
		if IsDateTime(v) {
			t.Errorf("expected %q not to be a datetime", v)
		}
	}
}

func TestValidateDate(t *testing.T) {
	if err := ValidateDate("2024-01-13"); err != nil {
		t.Errorf("expected valid date, got %v", err)
	}
	if err := ValidateDate("2024/01/13"); err == nil {
		t.Error("expected error for slashed date")
	}
}
