package lang

import "regexp"

// Spanish number and ordinal words 1-5, masculine and feminine forms.
var wordsToNum = map[string]int{
	"uno": 1, "una": 1, "primero": 1, "primera": 1,
	"dos": 2, "segundo": 2, "segunda": 2,
	"tres": 3, "tercero": 3, "tercera": 3,
	"cuatro": 4, "cuarto": 4, "cuarta": 4,
	"cinco": 5, "quinto": 5, "quinta": 5,
}

var selectorDigitRe = regexp.MustCompile(`\b([1-5])\b`)

// ParseSelector extracts a 1-5 menu choice from an utterance: a standalone
// digit anywhere in the text ("opción 3", "3."), or a number/ordinal word
// as the whole normalized phrase ("tercera"). Range checks against the
// actual option count are the caller's job.
func ParseSelector(text string) (int, bool) {
	norm := Normalize(text)
	if norm == "" {
		return 0, false
	}

	if m := selectorDigitRe.FindStringSubmatch(norm); m != nil {
		return int(m[1][0] - '0'), true
	}

	if n, ok := wordsToNum[norm]; ok {
		return n, true
	}

	return 0, false
}
