// Package dedupe repairs identity-key misses: entities that are the same
// physical hospital but produced different canonical ids.
package dedupe

import "strings"

// noiseWords are institutional generics that inflate similarity scores.
// Stripped before comparing names, so "Sanjeevani Hospital" and
// "Sanjeevani Multispeciality Hospital" compare on "sanjeevani" alone.
var noiseWords = []string{
	"hospital", "hospitals",
	"centre", "center",
	"clinic",
	"nursing", "home",
	"multispeciality", "multi", "speciality", "specialty",
	"superspeciality", "super",
	"health", "care", "healthcare", "medicare",
	"trauma", "maternity",
	"research", "institute", "memorial", "general",
	"diagnostic", "diagnostics",
	"foundation", "trust",
	"pvtltd", "pvt", "ltd",
}

// normalizeForMatch reduces a hospital name to its distinctive core:
// lowercase, noise words removed, everything outside [a-z0-9] stripped.
func normalizeForMatch(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	for _, word := range noiseWords {
		text = strings.ReplaceAll(text, word, "")
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
