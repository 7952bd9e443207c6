package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/insuremap/exclusion-registry/internal/dedupe"
	"github.com/insuremap/exclusion-registry/internal/registry"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Run the deduplication passes on the persisted registry",
	Long:  "Runs the spatial and textual merge passes without ingesting or geocoding, then commits the registry. Useful after tuning thresholds.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		store := registry.NewStore(cfg.Data.Output)
		reg, err := store.Load()
		if err != nil {
			return err
		}

		res := dedupe.Run(reg, dedupe.Options{
			CoordPrecision:      cfg.Dedupe.CoordPrecision,
			SimilarityThreshold: cfg.Dedupe.SimilarityThreshold,
		})

		if dryRun {
			fmt.Printf("Dry run: would merge %d spatial + %d textual duplicates\n", res.Spatial, res.Textual)
			return nil
		}
		if err := store.Commit(reg); err != nil {
			return err
		}

		fmt.Printf("Merged %d spatial + %d textual duplicates, %d entities remain\n",
			res.Spatial, res.Textual, reg.Len())
		return nil
	},
}

func init() {
	dedupeCmd.Flags().Bool("dry-run", false, "report merges without writing the registry")
	rootCmd.AddCommand(dedupeCmd)
}
