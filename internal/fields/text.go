// Package fields locates logical values inside loosely-shaped CRM records and
// normalizes raw money and date representations.
package fields

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases s, trims it and strips diacritics.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

var separators = strings.NewReplacer("-", " ", "_", " ", ".", " ")

// cleanKey drops leading hyphens/underscores and turns separators into spaces.
func cleanKey(normalized string) string {
	return separators.Replace(strings.TrimLeft(normalized, "-_"))
}

// cleanTerm only swaps separators; a leading hyphen on a term stays significant.
func cleanTerm(normalized string) string {
	return separators.Replace(normalized)
}
