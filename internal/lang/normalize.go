package lang

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, strips accents via Unicode decomposition, drops
// punctuation and collapses whitespace, so "¿Sí, por favor!" becomes
// "si por favor".
func Normalize(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))

	if stripped, _, err := transform.String(accentStripper, t); err == nil {
		t = stripped
	}

	var b strings.Builder
	lastSpace := false
	for _, r := range t {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace && b.Len() > 0 {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}
