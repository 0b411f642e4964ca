package utils

import (
	"regexp"
	"sort"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether s can be spliced into SQL as a bare table or
// column name.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// SortedKeys returns the keys of m in ascending order so generated statements are
// deterministic.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
