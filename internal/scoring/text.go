package scoring

import (
	"strings"
	"unicode"
)

// normalizeText lowercases and collapses whitespace. Commas are kept because
// location parsing splits on them; other punctuation becomes a space.
func normalizeText(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range strings.ToLower(value) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == ',':
			b.WriteRune(r)
		case r == '\'' || r == '.':
			// "St. Louis" and "O'Fallon" collapse instead of splitting.
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func containsAny(value string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(value, needle) {
			return true
		}
	}
	return false
}
