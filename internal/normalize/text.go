// Package normalize maps free-text roster values onto canonical enumerations.
//
// Every exported function is total: unmatched input yields a documented
// fallback value (or false) rather than an error.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// fold canonicalizes spreadsheet text for alias lookup: NFKC (full-width
// characters, non-breaking spaces), case folding, trimmed and with internal
// whitespace collapsed to single spaces.
func fold(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Fold exposes the alias-lookup canonicalization for other packages that key
// maps by free text (e.g. names in a handle-mapping file).
func Fold(s string) string {
	return fold(s)
}
