package validators

import "strings"

// TrimText trims surrounding whitespace and caps the result at maxRunes
// characters. A non-positive maxRunes leaves the length unbounded.
func TrimText(input string, maxRunes int) string {
	trimmed := strings.TrimSpace(input)
	if maxRunes <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) <= maxRunes {
		return trimmed
	}
	return strings.TrimSpace(string(runes[:maxRunes]))
}
