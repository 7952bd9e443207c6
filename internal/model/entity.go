// Package model defines the canonical registry entity and the raw record
// shape produced by the per-insurer scrapers.
package model

import (
	"sort"
	"strings"
)

// Accuracy classifies how confident we are in an entity's coordinates.
type Accuracy string

const (
	// AccuracyHigh means the location was confirmed as the actual facility
	// (place search hit with a health type, or rooftop/interpolated geocode).
	AccuracyHigh Accuracy = "HIGH"
	// AccuracyLow means a geocode matched but only at street/area precision.
	AccuracyLow Accuracy = "LOW"
	// AccuracyApproximate means we fell back to the city centroid.
	AccuracyApproximate Accuracy = "APPROXIMATE"
	// AccuracyPending means resolution has not produced coordinates yet.
	AccuracyPending Accuracy = "PENDING"
	// AccuracyNoKey means no API key was configured; no lookups were attempted.
	AccuracyNoKey Accuracy = "NO_KEY"
	// AccuracyFailed means every lookup errored at the transport level.
	AccuracyFailed Accuracy = "FAILED"
)

// Rank orders tiers for picking the master record in a merge group.
// APPROXIMATE and PENDING are deliberately equal: a centroid guess is no
// better evidence of identity than no coordinates at all.
func (a Accuracy) Rank() int {
	switch a {
	case AccuracyHigh:
		return 3
	case AccuracyLow:
		return 2
	case AccuracyApproximate, AccuracyPending:
		return 1
	default:
		return 0
	}
}

// Resolved reports whether this tier carries real (non-centroid) coordinates.
func (a Accuracy) Resolved() bool {
	return a == AccuracyHigh || a == AccuracyLow
}

// Entity is one resolved, deduplicated physical hospital in the registry.
type Entity struct {
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	City       string   `json:"city"`
	State      string   `json:"state"`
	Pincode    string   `json:"pincode"`
	ExcludedBy []string `json:"excluded_by"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	Accuracy   Accuracy `json:"accuracy"`
	PlaceID    string   `json:"place_id,omitempty"`

	// NeedsResolution marks the entity for the next geocoding pass.
	// Transient; never serialized.
	NeedsResolution bool `json:"-"`
}

// HasLocation reports whether the entity carries any coordinates at all.
func (e *Entity) HasLocation() bool {
	return e.Lat != 0 || e.Lng != 0
}

// AddSource unions a source name into ExcludedBy, reporting whether it was new.
func (e *Entity) AddSource(source string) bool {
	for _, s := range e.ExcludedBy {
		if s == source {
			return false
		}
	}
	e.ExcludedBy = append(e.ExcludedBy, source)
	return true
}

// SortSources orders ExcludedBy for deterministic serialization.
func (e *Entity) SortSources() {
	sort.Strings(e.ExcludedBy)
}

// ValidPincode reports whether pin is a usable 6-digit Indian postal code.
func ValidPincode(pin string) bool {
	pin = strings.TrimSpace(pin)
	if len(pin) != 6 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Less orders entities for output: valid pincodes first, then pincode
// ascending, then name. Keeps diffs of the persisted registry stable.
func Less(a, b *Entity) bool {
	pinA, pinB := strings.TrimSpace(a.Pincode), strings.TrimSpace(b.Pincode)
	validA, validB := ValidPincode(pinA), ValidPincode(pinB)
	if validA != validB {
		return validA
	}
	if pinA != pinB {
		return pinA < pinB
	}
	return strings.ToLower(strings.TrimSpace(a.Name)) < strings.ToLower(strings.TrimSpace(b.Name))
}
