package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gardenscape/plant-import/internal/cost"
	"github.com/gardenscape/plant-import/internal/imagegen"
	"github.com/gardenscape/plant-import/internal/metrics"
	"github.com/gardenscape/plant-import/pkg/runware"
)

var (
	imagesCommonName string
	imagesTypes      []string
)

var imagesCmd = &cobra.Command{
	Use:   "images <scientific name>",
	Short: "Generate seasonal images of a plant with Runware",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("images"); err != nil {
			return err
		}

		types, err := parseImageTypes(imagesTypes)
		if err != nil {
			return err
		}

		tracker := cost.NewTracker(cost.NewCalculator(cfg.Pricing))
		defer logCost(tracker)

		gen := newGenerator(tracker, nil)
		results, err := gen.Generate(ctx, imagegen.Subject{
			ScientificName: args[0],
			CommonName:     imagesCommonName,
		}, types)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Fprintf(os.Stdout, "%s\t%s\n", r.Type, r.Path)
		}
		return nil
	},
}

func init() {
	imagesCmd.Flags().StringVar(&imagesCommonName, "common-name", "", "common name used in the prompt")
	imagesCmd.Flags().StringSliceVar(&imagesTypes, "types", nil, "image types (spring, summer, autumn, winter, closeup); default all")
	rootCmd.AddCommand(imagesCmd)
}

func newGenerator(tracker *cost.Tracker, met *metrics.Metrics) *imagegen.Generator {
	client := runware.NewClient(cfg.Runware.Key,
		runware.WithBaseURL(cfg.Runware.BaseURL),
		runware.WithModel(cfg.Runware.Model),
	)
	return imagegen.New(client,
		imagegen.WithDir(cfg.Images.Dir),
		imagegen.WithSize(cfg.Images.Width, cfg.Images.Height),
		imagegen.WithConcurrency(cfg.Images.Concurrency),
		imagegen.WithCostTracker(tracker),
		imagegen.WithMetrics(met),
	)
}

func parseImageTypes(names []string) ([]imagegen.ImageType, error) {
	var types []imagegen.ImageType
	for _, n := range names {
		t, ok := imagegen.ParseType(n)
		if !ok {
			return nil, eris.Errorf("unknown image type %q (%s)", n, strings.Join(imageTypeNames(), ", "))
		}
		types = append(types, t)
	}
	return types, nil
}

func imageTypeNames() []string {
	names := make([]string, len(imagegen.AllTypes))
	for i, t := range imagegen.AllTypes {
		names[i] = string(t)
	}
	return names
}
