package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gardenscape/plant-import/internal/model"
)

var enrichCommonName string

var enrichCmd = &cobra.Command{
	Use:   "enrich <scientific name>",
	Short: "Normalize and enrich one plant name without storing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("enrich"); err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer logCost(env.Tracker)

		c := env.Importer.Enrich(ctx, model.Candidate{
			ScientificName: args[0],
			CommonName:     enrichCommonName,
			Source:         model.SourceManual,
		})
		return writeJSON(os.Stdout, c)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichCommonName, "common-name", "", "known common name")
	rootCmd.AddCommand(enrichCmd)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
