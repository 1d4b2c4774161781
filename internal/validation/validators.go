package validation

import (
	"fmt"
	"time"
)

// DateTimeLayouts are the layouts accepted as datetime values, tried in order
var DateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ValidateDate validates a date string in YYYY-MM-DD format
func ValidateDate(value string) error {
	_, err := time.Parse("2006-01-02", value)
	if err != nil {
		return fmt.Errorf("invalid date format, expected YYYY-MM-DD (e.g., '2024-01-13')")
	}
	return nil
}

// ParseDateTime parses a datetime string using DateTimeLayouts
func ParseDateTime(value string) (time.Time, error) {
	for _, layout := range DateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q, expected RFC3339 or YYYY-MM-DD[ HH:MM[:SS]]", value)
}

// IsDateTime reports whether value parses with one of DateTimeLayouts
func IsDateTime(value string) bool {
	// cheap reject: every accepted layout starts with a 4-digit year and a dash
	if len(value) < 10 || value[4] != '-' {
		return false
	}
	_, err := ParseDateTime(value)
	return err == nil
}
