package dedupe

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/insuremap/exclusion-registry/internal/registry"
)

// coordKey is a coordinate pair rounded to the configured precision.
type coordKey struct {
	lat int64
	lng int64
}

func roundCoord(v float64, precision int) int64 {
	scale := math.Pow10(precision)
	return int64(math.Round(v * scale))
}

// spatialPass merges entities sharing rounded coordinates. At 5 decimal
// places two records within ~1 meter of each other are the same building.
// Within a group the record with the best (accuracy rank, name length)
// becomes the primary and absorbs the rest, so if A, B and C share a
// coordinate all three collapse to one.
func spatialPass(reg *registry.Registry, precision int) int {
	groups := make(map[coordKey][]string)
	for _, id := range reg.IDs() {
		e := reg.Get(id)
		if e == nil || !e.HasLocation() {
			continue
		}
		key := coordKey{roundCoord(e.Lat, precision), roundCoord(e.Lng, precision)}
		groups[key] = append(groups[key], id)
	}

	merged := 0
	for _, ids := range groups {
		if len(ids) < 2 {
			continue
		}

		sort.Slice(ids, func(i, j int) bool {
			a, b := reg.Get(ids[i]), reg.Get(ids[j])
			if ra, rb := a.Accuracy.Rank(), b.Accuracy.Rank(); ra != rb {
				return ra > rb
			}
			if la, lb := len(a.Name), len(b.Name); la != lb {
				return la > lb
			}
			return ids[i] < ids[j]
		})

		primary := reg.Get(ids[0])
		for _, secID := range ids[1:] {
			secondary := reg.Get(secID)
			merge(primary, secondary)
			reg.Delete(secID)
			merged++
			zap.L().Info("spatial merge",
				zap.String("into", primary.Name),
				zap.String("absorbed", secondary.Name),
			)
		}
	}
	return merged
}
