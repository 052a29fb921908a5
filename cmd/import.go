package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gardenscape/plant-import/internal/export"
	"github.com/gardenscape/plant-import/internal/model"
)

var (
	importSource   string
	importQuery    string
	importLimit    int
	importFile     string
	importColumn   int
	importSkipRows int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Search a source and import new plants",
	Long:  "Searches one source (or reads names from an XLSX file), normalizes and enriches each candidate, and inserts plants whose scientific name is not yet stored.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("import"); err != nil {
			return err
		}
		if importFile == "" && importQuery == "" {
			return eris.New("one of --query or --file is required")
		}

		env, err := initEnv(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer env.Close()
		defer logCost(env.Tracker)

		var run *model.ImportRun
		if importFile != "" {
			names, rerr := export.ReadNames(importFile, export.ReadOptions{Column: importColumn, SkipRows: importSkipRows})
			if rerr != nil {
				return rerr
			}
			run, err = env.Importer.ImportNames(ctx, filepath.Base(importFile), names)
		} else {
			kind, ok := model.ParseSource(importSource)
			if !ok || kind == model.SourceManual {
				return eris.Errorf("unknown source %q (perenual, gbif, inaturalist)", importSource)
			}
			run, err = env.Importer.ImportQuery(ctx, kind, importQuery, importLimit)
		}
		if run != nil {
			zap.L().Info("import complete",
				zap.String("run_id", run.ID),
				zap.String("status", string(run.Status)),
				zap.Int("imported", run.Imported),
				zap.Int("skipped", run.Skipped),
				zap.Int("failed", run.Failed),
			)
			fmt.Fprintf(os.Stdout, "imported %d, skipped %d, failed %d\n", run.Imported, run.Skipped, run.Failed)
		}
		if err != nil {
			return eris.Wrap(err, "import")
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importSource, "source", string(model.SourcePerenual), "source to search (perenual, gbif, inaturalist)")
	importCmd.Flags().StringVar(&importQuery, "query", "", "search term")
	importCmd.Flags().IntVar(&importLimit, "limit", 0, "max candidates to import (0 = all)")
	importCmd.Flags().StringVar(&importFile, "file", "", "CSV or XLSX file of plant names to import instead of searching")
	importCmd.Flags().IntVar(&importColumn, "column", 0, "zero-based column holding names in --file")
	importCmd.Flags().IntVar(&importSkipRows, "skip-rows", 1, "header rows to skip in --file")
	importCmd.MarkFlagsMutuallyExclusive("query", "file")
	rootCmd.AddCommand(importCmd)
}
