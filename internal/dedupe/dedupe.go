package dedupe

import (
	"go.uber.org/zap"

	"github.com/insuremap/exclusion-registry/internal/registry"
)

// Options tunes the deduplication passes.
type Options struct {
	// CoordPrecision is the number of decimal places used to group
	// coordinates in the spatial pass (5 ≈ 1 meter).
	CoordPrecision int
	// SimilarityThreshold is the minimum name-similarity score for a
	// textual merge.
	SimilarityThreshold float64
}

// DefaultOptions returns the production tuning.
func DefaultOptions() Options {
	return Options{CoordPrecision: 5, SimilarityThreshold: 0.85}
}

// Result reports how many entities each pass merged away.
type Result struct {
	Spatial int
	Textual int
}

// Run executes the spatial pass then the textual pass. Running it again
// on an already-deduplicated registry merges nothing: both passes are
// fixed points.
func Run(reg *registry.Registry, opts Options) Result {
	if opts.CoordPrecision <= 0 {
		opts.CoordPrecision = 5
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = 0.85
	}

	log := zap.L().With(zap.String("stage", "dedupe"))

	res := Result{}
	res.Spatial = spatialPass(reg, opts.CoordPrecision)
	log.Info("spatial pass complete", zap.Int("merged", res.Spatial))

	res.Textual = textualPass(reg, opts.SimilarityThreshold)
	log.Info("textual pass complete", zap.Int("merged", res.Textual))

	log.Info("deduplication complete", zap.Int("total_merged", res.Spatial+res.Textual))
	return res
}
