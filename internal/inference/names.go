package inference

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	nonWordRegex    = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// NormalizeName turns an arbitrary header into a column identifier:
// lowercase, whitespace runs become "_", everything outside [A-Za-z0-9_] is dropped.
// position is the 1-based column position, used when nothing usable is left.
func NormalizeName(name string, position int) string {
	n := whitespaceRegex.ReplaceAllString(strings.TrimSpace(name), "_")
	n = strings.ToLower(nonWordRegex.ReplaceAllString(n, ""))
	if n == "" || strings.Trim(n, "_") == "" {
		return fmt.Sprintf("column_%d", position)
	}
	if n[0] >= '0' && n[0] <= '9' {
		n = "col_" + n
	}
	return n
}

// NormalizeNames normalizes every header and resolves duplicates by appending
// numeric suffixes (_2, _3, ...) in input order.
func NormalizeNames(headers []string) []string {
	names := make([]string, len(headers))
	taken := make(map[string]bool, len(headers))

	for i, h := range headers {
		names[i] = NormalizeName(h, i+1)
	}
	// first pass reserves every distinct name so suffixes never collide with a later header
	for _, n := range names {
		taken[n] = true
	}

	seen := make(map[string]bool, len(names))
	for i, n := range names {
		if !seen[n] {
			seen[n] = true
			continue
		}
		for suffix := 2; ; suffix++ {
			candidate := fmt.Sprintf("%s_%d", n, suffix)
			if !taken[candidate] {
				names[i] = candidate
				taken[candidate] = true
				seen[candidate] = true
				break
			}
		}
	}
	return names
}
