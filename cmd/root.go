package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/insuremap/exclusion-registry/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "exclusion-registry",
	Short: "Canonical registry of insurer-excluded hospitals",
	Long:  "Merges per-insurer excluded-hospital lists into one deduplicated, geocoded registry, safe to rebuild incrementally as sources change.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
