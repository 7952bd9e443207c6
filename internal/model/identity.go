package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics decomposes accented runes and drops the combining marks,
// so "Crèche" and "Creche" produce the same key.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// placeholder values scrapers emit for absent fields.
func isPlaceholder(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}

// cleanToken uppercases s and strips everything outside [A-Z0-9].
func cleanToken(s string) string {
	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}
	s = strings.ToUpper(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanonicalID derives the stable registry key for a record. The name is
// reduced to its alphanumeric skeleton; the suffix is the postal code when
// usable (>= 6 chars, not a placeholder), else the cleaned city name.
// "Sri. Hospital"/411001 and "SRI HOSPITAL"/411001 collapse to the same key.
func CanonicalID(name, pin, city string) string {
	cleanPin := strings.TrimSpace(pin)

	var suffix string
	if len(cleanPin) >= 6 && !isPlaceholder(cleanPin) {
		suffix = cleanPin
	} else {
		suffix = cleanToken(city)
	}

	return cleanToken(name) + "_" + suffix
}
