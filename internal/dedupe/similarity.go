package dedupe

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// shortNameLen is the normalized length below which only an exact match
// counts. Names like "Om" or "Sai" would otherwise false-match half the
// registry.
const shortNameLen = 5

// containmentBonus rewards one normalized name containing the other
// ("sanjeevani" inside "sanjeevanisuper").
const containmentBonus = 0.2

// similarity scores two hospital names in [0, 1.2]: sequence-matching
// ratio on the normalized names plus a containment bonus.
func similarity(nameA, nameB string) float64 {
	normA := normalizeForMatch(nameA)
	normB := normalizeForMatch(nameB)

	if normA == "" || normB == "" {
		return 0
	}

	if len(normA) < shortNameLen || len(normB) < shortNameLen {
		if normA == normB {
			return 1
		}
		return 0
	}

	m := difflib.NewMatcher(strings.Split(normA, ""), strings.Split(normB, ""))
	score := m.Ratio()

	if strings.Contains(normA, normB) || strings.Contains(normB, normA) {
		score += containmentBonus
	}
	return score
}
