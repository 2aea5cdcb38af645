package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims s and collapses every run of whitespace to a single space.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeName is TrimAndNormalize after dropping control and format
// characters such as zero-width spaces pasted in from chat apps.
func NormalizeName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return r
		}
		if unicode.In(r, unicode.Cc, unicode.Cf) {
			return -1
		}
		return r
	}, name)
	return TrimAndNormalize(cleaned)
}

// SplitFullName splits on the first space. Everything after it is the last name.
func SplitFullName(fullName string) (first, last string) {
	first, last, _ = strings.Cut(NormalizeName(fullName), " ")
	return first, last
}
