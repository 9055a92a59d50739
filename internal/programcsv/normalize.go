package programcsv

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	whitespace    = regexp.MustCompile(`\s+`)
	keyStripper   = strings.NewReplacer(" ", "", "_", "", "-", "")
)

// stripAccents removes combining marks, so "Miércoles" becomes "Miercoles".
// A transform.Transformer is stateful; build one per call.
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeColumn lowercases a header, strips accents, drops parenthetical
// suffixes such as "(min)" and collapses whitespace.
func NormalizeColumn(name string) string {
	s := strings.TrimPrefix(name, "\ufeff")
	s = stripAccents(strings.ToLower(s))
	s = parenthetical.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// compareKey is the form used for keyword and synonym matching: a normalized
// column with spaces, underscores and dashes removed.
func compareKey(name string) string {
	return keyStripper.Replace(NormalizeColumn(name))
}

// normalizeValue lowercases and strips accents from a cell value.
func normalizeValue(v string) string {
	return stripAccents(strings.ToLower(strings.TrimSpace(v)))
}
