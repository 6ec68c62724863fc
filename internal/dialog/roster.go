package dialog

import (
	"strings"

	"github.com/vozclinica/voice-booking/internal/lang"
)

// The specialty menu and doctor roster are fixed demo enumerations; the
// chosen doctor ordinal is mapped to a real provider row at runtime.
var (
	specialties  = []string{"Cataratas", "Glaucoma", "Retina"}
	doctorRoster = []string{"Dra. Valeria García", "Dr. Andrés Morales", "Dra. Lucía Sánchez"}
)

// matchSpecialty resolves a digit 1-3 or a keyword mention to a specialty
// index. Keyword matching is substring containment on normalized text, so
// "quiero glaucoma por favor" resolves to Glaucoma.
func matchSpecialty(text string) (int, bool) {
	if n, ok := lang.ParseSelector(text); ok {
		if n >= 1 && n <= len(specialties) {
			return n - 1, true
		}
		return 0, false
	}

	norm := lang.Normalize(text)
	if norm == "" {
		return 0, false
	}
	for i, s := range specialties {
		if strings.Contains(norm, lang.Normalize(s)) {
			return i, true
		}
	}

	return 0, false
}

// matchDoctor resolves a digit 1-3 or a name/surname mention to a roster
// index. Title tokens ("dr", "dra") never match on their own.
func matchDoctor(text string) (int, bool) {
	if n, ok := lang.ParseSelector(text); ok {
		if n >= 1 && n <= len(doctorRoster) {
			return n - 1, true
		}
		return 0, false
	}

	norm := lang.Normalize(text)
	if norm == "" {
		return 0, false
	}
	inputFields := strings.Fields(norm)

	for i, name := range doctorRoster {
		for _, tok := range strings.Fields(lang.Normalize(name)) {
			if tok == "dr" || tok == "dra" {
				continue
			}
			for _, f := range inputFields {
				if f == tok {
					return i, true
				}
			}
		}
	}

	return 0, false
}
