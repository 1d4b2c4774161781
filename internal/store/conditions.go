package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leengari/tablehub/internal/validation"
)

// Conditions is a conjunctive set of column = value equality tests
type Conditions map[string]interface{}

// ParseConditions turns textual clauses such as "title='A'" or "year = 1999"
// into Conditions. Clauses are parsed, never interpolated: the column must
// match the identifier pattern and the value becomes a bound parameter.
func ParseConditions(clauses []string) (Conditions, error) {
	conds := make(Conditions, len(clauses))
	for _, clause := range clauses {
		col, val, err := ParseCondition(clause)
		if err != nil {
			return nil, err
		}
		if prev, dup := conds[col]; dup && prev != val {
			return nil, fmt.Errorf("conflicting conditions on column %s", col)
		}
		conds[col] = val
	}
	return conds, nil
}

// ParseCondition parses a single "column = value" clause.
// Values may be single- or double-quoted strings ('' escapes a quote) or bare
// numbers and words.
func ParseCondition(clause string) (string, interface{}, error) {
	eq := strings.Index(clause, "=")
	if eq < 0 {
		return "", nil, fmt.Errorf("condition %q is not an equality", clause)
	}

	col := strings.TrimSpace(clause[:eq])
	if err := validation.ValidateColumnName(col); err != nil {
		return "", nil, err
	}

	raw := strings.TrimSpace(clause[eq+1:])
	if raw == "" {
		return "", nil, fmt.Errorf("condition on %s has no value", col)
	}

	if q := raw[0]; q == '\'' || q == '"' {
		if len(raw) < 2 || raw[len(raw)-1] != q {
			return "", nil, fmt.Errorf("condition on %s has an unterminated string", col)
		}
		inner := raw[1 : len(raw)-1]
		doubled := string([]byte{q, q})
		if strings.Contains(strings.ReplaceAll(inner, doubled, ""), string(q)) {
			return "", nil, fmt.Errorf("condition on %s has an unescaped quote", col)
		}
		return col, strings.ReplaceAll(inner, doubled, string(q)), nil
	}

	if strings.EqualFold(raw, "NULL") {
		return "", nil, fmt.Errorf("condition on %s compares with NULL, which never matches", col)
	}
	if strings.ContainsAny(raw, " \t;") {
		return "", nil, fmt.Errorf("condition on %s has an unquoted value with spaces", col)
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return col, i, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return col, f, nil
	}
	return col, raw, nil
}
