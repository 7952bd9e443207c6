package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/insuremap/exclusion-registry/internal/registry"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the persisted registry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store := registry.NewStore(cfg.Data.Output)
		reg, err := store.Load()
		if err != nil {
			return err
		}

		stats := reg.Summarize()
		fmt.Printf("Registry: %s\n", store.Path())
		fmt.Printf("Entities: %d (%d unresolved)\n\n", stats.Total, stats.Unresolved)

		fmt.Println("By accuracy:")
		for _, tier := range sortedKeys(stats.ByAccuracy) {
			fmt.Printf("  %-12s %d\n", tier, stats.ByAccuracy[tier])
		}

		fmt.Println("\nBy source:")
		for _, src := range sortedKeys(stats.BySource) {
			fmt.Printf("  %-30s %d\n", src, stats.BySource[src])
		}
		return nil
	},
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
