package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gardenscape/plant-import/internal/model"
)

var (
	searchSource string
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search one source and print normalized candidates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("search"); err != nil {
			return err
		}

		kind, ok := model.ParseSource(searchSource)
		if !ok || kind == model.SourceManual {
			return eris.Errorf("unknown source %q (perenual, gbif, inaturalist)", searchSource)
		}

		env, err := initEnv(ctx, cfg, false)
		if err != nil {
			return err
		}

		cands, err := env.Importer.Search(ctx, kind, args[0])
		if err != nil {
			return err
		}
		if searchJSON {
			return writeJSON(os.Stdout, cands)
		}
		if len(cands) == 0 {
			fmt.Fprintln(os.Stderr, "No candidates found.")
			return nil
		}
		formatCandidates(os.Stdout, cands)
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchSource, "source", string(model.SourcePerenual), "source to search (perenual, gbif, inaturalist)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print candidates as JSON")
	rootCmd.AddCommand(searchCmd)
}

// formatCandidates writes a tabular list of candidates to out.
func formatCandidates(out io.Writer, cands []model.Candidate) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SCIENTIFIC NAME\tCOMMON NAME\tFAMILY\tEXTERNAL ID")
	_, _ = fmt.Fprintln(w, "---------------\t-----------\t------\t-----------")
	for _, c := range cands {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			c.ScientificName,
			truncate(c.CommonName, 30),
			c.Family,
			c.ExternalID,
		)
	}
	_ = w.Flush()
}

// truncate shortens s to n runes for compact display.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
