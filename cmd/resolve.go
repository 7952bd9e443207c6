package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/insuremap/exclusion-registry/internal/dedupe"
	"github.com/insuremap/exclusion-registry/internal/pipeline"
	"github.com/insuremap/exclusion-registry/internal/registry"
	"github.com/insuremap/exclusion-registry/pkg/geocode"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Run the full resolution pipeline",
	Long:  "Ingests all source files, geocodes entities that need resolution, deduplicates the registry and commits it atomically.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dataDir, _ := cmd.Flags().GetString("data-dir")
		if dataDir == "" {
			dataDir = cfg.Data.Dir
		}
		workers, _ := cmd.Flags().GetInt("workers")
		if workers <= 0 {
			workers = cfg.Resolve.Workers
		}

		opts := []geocode.Option{
			geocode.WithAPIKey(cfg.Google.APIKey),
			geocode.WithRateLimit(cfg.Google.RateLimit),
			geocode.WithAutocompleteURL(cfg.Autocomplete.URL),
		}
		if cfg.Resolve.CacheEnabled {
			cache, err := geocode.OpenCache(cfg.Resolve.CachePath)
			if err != nil {
				zap.L().Warn("geocode cache unavailable, continuing without it", zap.Error(err))
			} else {
				defer cache.Close()
				opts = append(opts, geocode.WithCache(cache))
			}
		}

		store := registry.NewStore(cfg.Data.Output)
		p := pipeline.New(store, geocode.NewClient(opts...), pipeline.Options{
			DataDir:            dataDir,
			CheckpointInterval: cfg.Resolve.CheckpointInterval,
			Workers:            workers,
			Dedupe: dedupe.Options{
				CoordPrecision:      cfg.Dedupe.CoordPrecision,
				SimilarityThreshold: cfg.Dedupe.SimilarityThreshold,
			},
		})

		if err := p.Run(ctx); err != nil {
			return err
		}

		reg, err := store.Load()
		if err != nil {
			return err
		}
		stats := reg.Summarize()
		fmt.Printf("Resolution complete: %d entities, %d unresolved\n", stats.Total, stats.Unresolved)
		return nil
	},
}

func init() {
	resolveCmd.Flags().String("data-dir", "", "source file directory (default from config)")
	resolveCmd.Flags().Int("workers", 0, "geocode worker count (default from config)")
	rootCmd.AddCommand(resolveCmd)
}
