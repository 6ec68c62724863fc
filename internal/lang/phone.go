package lang

import (
	"strings"
	"unicode"
)

// LooksLikePhone reports whether an utterance is probably a phone number
// rather than a name: at least 8 digit characters making up at least 70%
// of the trimmed input.
func LooksLikePhone(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return false
	}

	digits := 0
	total := 0
	for _, r := range trimmed {
		total++
		if unicode.IsDigit(r) {
			digits++
		}
	}

	return digits >= 8 && float64(digits) >= 0.7*float64(total)
}
