// Package textnorm canonicalizes exercise names and aliases so that stored
// names and typed queries compare equal regardless of case, accents or
// punctuation.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var apostrophes = strings.NewReplacer("'", "", "’", "", "‘", "", "`", "")

// Normalize lower-cases s, folds diacritics, drops apostrophes and collapses
// every run of non-alphanumeric characters into a single space.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = apostrophes.Replace(strings.ToLower(s))

	// transform.Chain keeps internal state, build a fresh one per call.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// All normalizes every value, skipping ones that normalize to "".
func All(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if n := Normalize(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Matches reports whether query, once normalized, is a substring of name or
// of any alias. Both name and aliases are expected to be normalized already.
// An empty query matches everything.
func Matches(query, name string, aliases []string) bool {
	q := Normalize(query)
	if q == "" {
		return true
	}
	if strings.Contains(name, q) {
		return true
	}
	for _, a := range aliases {
		if strings.Contains(a, q) {
			return true
		}
	}
	return false
}
