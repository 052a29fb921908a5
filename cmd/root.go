package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gardenscape/plant-import/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "plant-import",
	Short: "Plant catalogue import and enrichment pipeline",
	Long:  "Searches Perenual, GBIF and iNaturalist, normalizes botanical names, fills missing fields from secondary sources and an LLM validator, and stores new plants.",
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
