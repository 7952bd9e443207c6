package model

import "strings"

// SourceRecord is the raw record shape produced by the per-insurer scrapers.
// Fields are free text; anything missing decodes to the empty string.
type SourceRecord struct {
	Name    string `json:"Hospital Name"`
	Address string `json:"Address"`
	City    string `json:"City"`
	State   string `json:"State"`
	Pincode string `json:"Pin Code"`
}

// headerArtifacts are cell values that show up as records when a scraper
// accidentally captures the table header row.
var headerArtifacts = map[string]struct{}{
	"hospital name": {},
	"name":          {},
	"sr no":         {},
	"s.no":          {},
}

// Usable reports whether the record is worth ingesting: it needs a real
// hospital name that is not a header artifact or placeholder.
func (r SourceRecord) Usable() bool {
	name := strings.TrimSpace(r.Name)
	if name == "" || isPlaceholder(name) {
		return false
	}
	_, header := headerArtifacts[strings.ToLower(name)]
	return !header
}

// ID returns the canonical registry key for this record.
func (r SourceRecord) ID() string {
	return CanonicalID(r.Name, r.Pincode, r.City)
}
