package dedupe

import (
	"strings"

	"github.com/insuremap/exclusion-registry/internal/model"
)

// merge folds secondary into primary: sources are unioned, the longer
// (more detailed) address wins, and missing city/state/pincode are
// backfilled. The primary's coordinates and accuracy are untouched — it
// was chosen as the better-resolved record.
func merge(primary, secondary *model.Entity) {
	for _, src := range secondary.ExcludedBy {
		primary.AddSource(src)
	}

	if len(strings.TrimSpace(secondary.Address)) > len(strings.TrimSpace(primary.Address)) {
		primary.Address = secondary.Address
	}

	if isBlank(primary.City) && !isBlank(secondary.City) {
		primary.City = secondary.City
	}
	if isBlank(primary.State) && !isBlank(secondary.State) {
		primary.State = secondary.State
	}
	if isBlank(primary.Pincode) && !isBlank(secondary.Pincode) {
		primary.Pincode = secondary.Pincode
	}
}

// isBlank treats whitespace-padded scraper fields as empty.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
