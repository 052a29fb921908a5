package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gardenscape/plant-import/internal/export"
	"github.com/gardenscape/plant-import/internal/model"
	"github.com/gardenscape/plant-import/internal/store"
)

var plantsCmd = &cobra.Command{
	Use:   "plants",
	Short: "Inspect the plant catalogue",
}

// -- plants list --

var plantsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored plants",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("plants"); err != nil {
			return err
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter, err := plantFilterFromFlags(cmd)
		if err != nil {
			return err
		}
		plants, err := st.ListPlants(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "plants list")
		}
		if len(plants) == 0 {
			fmt.Fprintln(os.Stderr, "No plants found.")
			return nil
		}
		formatPlantsList(os.Stdout, plants)
		return nil
	},
}

// -- plants export --

var plantsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored plants to an XLSX workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("plants"); err != nil {
			return err
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter, err := plantFilterFromFlags(cmd)
		if err != nil {
			return err
		}
		plants, err := st.ListPlants(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "plants export")
		}

		path, _ := cmd.Flags().GetString("out")
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "plants export: create file")
		}
		if err := export.WritePlants(f, plants); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrap(err, "plants export: close file")
		}

		zap.L().Info("plants exported", zap.String("path", path), zap.Int("plants", len(plants)))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{plantsListCmd, plantsExportCmd} {
		c.Flags().String("query", "", "match scientific or common name")
		c.Flags().String("family", "", "filter by family")
		c.Flags().String("source", "", "filter by source")
	}
	plantsListCmd.Flags().Int("limit", 50, "max number of plants to display")
	plantsExportCmd.Flags().Int("limit", 10000, "max number of plants to export")
	plantsExportCmd.Flags().String("out", "plants.xlsx", "output file")

	plantsCmd.AddCommand(plantsListCmd)
	plantsCmd.AddCommand(plantsExportCmd)
	rootCmd.AddCommand(plantsCmd)
}

func openStore(cmd *cobra.Command) (store.Store, error) {
	st, err := initStore(cmd.Context(), cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(cmd.Context()); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func plantFilterFromFlags(cmd *cobra.Command) (store.PlantFilter, error) {
	query, _ := cmd.Flags().GetString("query")
	family, _ := cmd.Flags().GetString("family")
	src, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := store.PlantFilter{Query: query, Family: family, Limit: limit}
	if src != "" {
		kind, ok := model.ParseSource(src)
		if !ok {
			return filter, eris.Errorf("unknown source %q", src)
		}
		filter.Source = kind
	}
	return filter, nil
}

// formatPlantsList writes a tabular list of plants to out.
func formatPlantsList(out io.Writer, plants []model.Plant) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSCIENTIFIC NAME\tCOMMON NAME\tFAMILY\tSOURCE\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t---------------\t-----------\t------\t------\t-------")
	for _, p := range plants {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(p.ID),
			p.ScientificName,
			truncate(p.CommonName, 30),
			p.Family,
			p.Source,
			p.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
