package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gardenscape/plant-import/internal/model"
	"github.com/gardenscape/plant-import/internal/nomenclature"
)

var normalizeJSON bool

var normalizeCmd = &cobra.Command{
	Use:   "normalize <name>...",
	Short: "Apply the nomenclature rules to plant names",
	Long:  "Runs the normalizer offline and prints the parsed genus, species, series and cultivar of each name.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("normalize"); err != nil {
			return err
		}
		norm, err := initNormalizer(cfg.Nomenclature)
		if err != nil {
			return err
		}

		out := normalizeNames(norm, args)
		if normalizeJSON {
			return writeJSON(os.Stdout, out)
		}
		formatNormalized(os.Stdout, args, out)
		return nil
	},
}

func init() {
	normalizeCmd.Flags().BoolVar(&normalizeJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(normalizeCmd)
}

func normalizeNames(norm *nomenclature.Normalizer, names []string) []model.Candidate {
	out := make([]model.Candidate, len(names))
	for i, name := range names {
		out[i] = model.Candidate{ScientificName: name}
		norm.Normalize(&out[i])
	}
	return out
}

func formatNormalized(out io.Writer, input []string, cands []model.Candidate) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "INPUT\tNORMALIZED\tGENUS\tSPECIES\tSERIES\tCULTIVAR")
	for i, c := range cands {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			input[i], c.ScientificName, c.Genus, c.Species, c.Series, c.Cultivar)
	}
	_ = w.Flush()
}
