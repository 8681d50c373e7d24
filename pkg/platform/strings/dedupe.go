// Package strings holds list helpers for configuration input.
package strings

import (
	"strings"
)

// SplitUnique splits raw on sep, trims each element and drops empties and
// repeats. Order of first occurrence is preserved; comparison is
// case-sensitive because wallet addresses are.
func SplitUnique(raw, sep string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, sep)
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}
