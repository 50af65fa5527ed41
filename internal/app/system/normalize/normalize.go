// Package normalize canonicalizes user-supplied identifiers before they
// are stored or compared.
package normalize

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email trims and lowercases an address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses inner runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Username trims a handle. Case is preserved for display; use UsernameKey
// for uniqueness and lookups.
func Username(s string) string {
	return strings.TrimSpace(s)
}

// UsernameKey is the case- and diacritic-insensitive form of a username.
func UsernameKey(s string) string {
	return text.Fold(strings.TrimSpace(s))
}

// Tags trims, lowercases and de-duplicates tags, dropping empties.
func Tags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// QueryParam trims a query-string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
