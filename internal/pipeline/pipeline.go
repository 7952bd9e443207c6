// Package pipeline sequences the resolution stages: ingest, geocode,
// dedupe, commit. Each stage operates on the registry passed through it.
package pipeline

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/insuremap/exclusion-registry/internal/dedupe"
	"github.com/insuremap/exclusion-registry/internal/ingest"
	"github.com/insuremap/exclusion-registry/internal/model"
	"github.com/insuremap/exclusion-registry/internal/registry"
	"github.com/insuremap/exclusion-registry/pkg/geocode"
)

// Resolver is the geocoding capability the pipeline consumes.
type Resolver interface {
	Resolve(ctx context.Context, p geocode.Place) geocode.Result
	HasKey() bool
}

// Options configures a pipeline run.
type Options struct {
	DataDir            string
	CheckpointInterval int
	Workers            int
	Dedupe             dedupe.Options
}

// Pipeline runs the full resolution job over one registry store.
type Pipeline struct {
	store    *registry.Store
	resolver Resolver
	opts     Options
}

// New creates a Pipeline.
func New(store *registry.Store, resolver Resolver, opts Options) *Pipeline {
	if opts.CheckpointInterval <= 0 {
		opts.CheckpointInterval = 10
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Pipeline{store: store, resolver: resolver, opts: opts}
}

// Run executes ingest, geocode, dedupe and the final atomic commit.
// Cancellation stops scheduling new geocode work; in-flight entities
// complete and the registry is still committed, so an interrupted run
// loses nothing and simply resumes next time.
func (p *Pipeline) Run(ctx context.Context) error {
	reg, err := p.store.Load()
	if err != nil {
		return err
	}

	if _, err := ingest.Run(p.opts.DataDir, reg); err != nil {
		return err
	}

	p.geocodeStage(ctx, reg)

	dedupe.Run(reg, p.opts.Dedupe)

	return p.store.Commit(reg)
}

// geocodeStage resolves every queued entity through a bounded worker
// pool, checkpointing every N resolutions.
func (p *Pipeline) geocodeStage(ctx context.Context, reg *registry.Registry) {
	log := zap.L().With(zap.String("stage", "geocode"))

	queue := reg.ResolutionQueue()
	if len(queue) == 0 {
		log.Info("no entities need resolution")
		return
	}
	if !p.resolver.HasKey() {
		log.Warn("no geocoding api key configured, marking entities NO_KEY")
	}
	log.Info("starting resolution", zap.Int("entities", len(queue)), zap.Int("workers", p.opts.Workers))

	// In-flight entities run to completion even after cancellation, so a
	// SIGINT never leaves a half-applied resolution.
	resolveCtx := context.WithoutCancel(ctx)

	var resolved atomic.Int64
	eg := &errgroup.Group{}
	eg.SetLimit(p.opts.Workers)

	for _, id := range queue {
		if ctx.Err() != nil {
			log.Warn("cancelled, leaving remaining entities for the next run",
				zap.Int64("processed", resolved.Load()))
			break
		}

		eg.Go(func() error {
			e := reg.Get(id)
			if e == nil {
				return nil
			}

			result := p.resolver.Resolve(resolveCtx, geocode.Place{
				Name:    e.Name,
				Address: e.Address,
				City:    e.City,
				State:   e.State,
				Pincode: e.Pincode,
			})
			p.apply(reg, id, result)

			if n := resolved.Add(1); p.opts.CheckpointInterval > 0 && n%int64(p.opts.CheckpointInterval) == 0 {
				if err := p.store.Checkpoint(reg); err != nil {
					log.Error("checkpoint failed", zap.Error(err))
				} else {
					log.Info("progress checkpoint", zap.Int64("processed", n), zap.Int("total", len(queue)))
				}
			}
			return nil
		})
	}

	_ = eg.Wait()
	log.Info("resolution complete", zap.Int64("processed", resolved.Load()))
}

// apply writes a cascade result onto the entity. An unmatched result
// never clobbers previously obtained coordinates: the old geocode stays
// until something better replaces it.
func (p *Pipeline) apply(reg *registry.Registry, id string, result geocode.Result) {
	reg.Update(id, func(e *model.Entity) {
		defer func() { e.NeedsResolution = false }()

		if result.Matched() {
			e.Lat = result.Lat
			e.Lng = result.Lng
			e.Accuracy = result.Accuracy
			if result.PlaceID != "" {
				e.PlaceID = result.PlaceID
			}
			return
		}
		if !e.HasLocation() {
			e.Accuracy = result.Accuracy
		}
	})
}
