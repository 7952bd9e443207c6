package dedupe

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/insuremap/exclusion-registry/internal/model"
	"github.com/insuremap/exclusion-registry/internal/registry"
)

// textualPass rescues unresolved entities by name similarity. Entities
// with a real location (HIGH or LOW) act as masters, bucketed by valid
// pincode; every other entity in the same pincode is a candidate and is
// absorbed by its highest-scoring master above the threshold. Entities
// without a valid pincode are left alone: they stay unresolved and get
// another geocoding attempt next run instead of a guess here.
func textualPass(reg *registry.Registry, threshold float64) int {
	masters := make(map[string][]string)
	var candidates []string

	ids := reg.IDs()
	sort.Strings(ids)
	for _, id := range ids {
		e := reg.Get(id)
		pin := strings.TrimSpace(e.Pincode)
		if !model.ValidPincode(pin) {
			continue
		}
		if e.Accuracy.Resolved() && e.HasLocation() {
			masters[pin] = append(masters[pin], id)
		} else {
			candidates = append(candidates, id)
		}
	}

	merged := 0
	for _, candID := range candidates {
		cand := reg.Get(candID)
		if cand == nil {
			continue
		}
		pin := strings.TrimSpace(cand.Pincode)

		var bestID string
		var bestScore float64
		for _, masterID := range masters[pin] {
			score := similarity(cand.Name, reg.Get(masterID).Name)
			if score > threshold && score > bestScore {
				bestScore = score
				bestID = masterID
			}
		}
		if bestID == "" {
			continue
		}

		master := reg.Get(bestID)
		merge(master, cand)
		reg.Delete(candID)
		merged++
		zap.L().Info("textual merge",
			zap.String("into", master.Name),
			zap.String("absorbed", cand.Name),
			zap.Float64("score", bestScore),
		)
	}
	return merged
}
