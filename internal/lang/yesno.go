package lang

import "strings"

// Answer is the tri-state result of yes/no detection.
type Answer int

const (
	AnswerUnknown Answer = iota
	AnswerYes
	AnswerNo
)

var (
	yesTokens = []string{"si", "s", "claro", "ok", "okay", "acepto", "confirmo", "de acuerdo", "dale", "vale", "por supuesto"}
	noTokens  = []string{"no", "n", "cancelar", "cancela", "negativo"}
)

// ParseYesNo normalizes the utterance and checks it against affirmative and
// negative token sets. Containment is on word boundaries, so "sí por favor"
// is a yes and "no gracias" is a no, but "nosotros" matches nothing.
// Utterances matching both sets come back unknown.
func ParseYesNo(text string) Answer {
	norm := Normalize(text)
	if norm == "" {
		return AnswerUnknown
	}

	yes := containsAnyToken(norm, yesTokens)
	no := containsAnyToken(norm, noTokens)

	switch {
	case yes && !no:
		return AnswerYes
	case no && !yes:
		return AnswerNo
	default:
		return AnswerUnknown
	}
}

func containsAnyToken(norm string, tokens []string) bool {
	fields := strings.Fields(norm)
	for _, tok := range tokens {
		if strings.ContainsRune(tok, ' ') {
			if strings.Contains(norm, tok) {
				return true
			}
			continue
		}
		for _, f := range fields {
			if f == tok {
				return true
			}
		}
	}
	return false
}
