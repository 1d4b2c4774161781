package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// identifierRegex is the allow-list every table and column name must match
// before it is placed into statement text.
var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// camelBoundary finds lower/upper transitions for database file names ("MyMusic" -> "my_music")
var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// reservedPrefix marks tables owned by the engine itself
const reservedPrefix = "sqlite_"

// IdentifierError reports a name that failed the identifier pattern
type IdentifierError struct {
	Kind   string // "table", "column" or "database"
	Name   string
	Reason string
}

func (e *IdentifierError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("Invalid %s name '%s': %s", e.Kind, e.Name, e.Reason)
	}
	return fmt.Sprintf("Invalid %s name '%s'.", e.Kind, e.Name)
}

// IsIdentifier reports whether name matches the identifier pattern
func IsIdentifier(name string) bool {
	return identifierRegex.MatchString(name)
}

// NormalizeTableName trims, lowercases and turns whitespace runs into underscores
func NormalizeTableName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return whitespaceRegex.ReplaceAllString(name, "_")
}

// ValidateTableName normalizes name and checks it against the identifier pattern.
// Engine-owned names (sqlite_*) are rejected.
func ValidateTableName(name string) (string, error) {
	normalized := NormalizeTableName(name)
	if normalized == "" {
		return "", &IdentifierError{Kind: "table", Name: name, Reason: "name is empty"}
	}
	if !IsIdentifier(normalized) {
		return "", &IdentifierError{Kind: "table", Name: normalized}
	}
	if strings.HasPrefix(normalized, reservedPrefix) {
		return "", &IdentifierError{Kind: "table", Name: normalized, Reason: "reserved for internal tables"}
	}
	return normalized, nil
}

// ValidateColumnName checks a column name against the identifier pattern.
// Column names are not rewritten here; the inferencer normalizes uploaded headers.
func ValidateColumnName(name string) error {
	if !IsIdentifier(name) {
		return &IdentifierError{Kind: "column", Name: name}
	}
	return nil
}

// DatabaseName derives the logical database name from a file path:
// base name without extension, snake-cased.
func DatabaseName(path string) (string, error) {
	base := filepath.Base(strings.TrimSpace(path))
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	name := strings.ToLower(camelBoundary.ReplaceAllString(base, "${1}_${2}"))
	if !IsIdentifier(name) {
		return "", &IdentifierError{Kind: "database", Name: name}
	}
	return name, nil
}
