package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gardenscape/plant-import/internal/model"
	"github.com/gardenscape/plant-import/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect import run history",
	Long:  "Commands for listing and summarizing import runs.",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List import runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter, err := runFilterFromFlags(cmd)
		if err != nil {
			return err
		}
		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter, err := runFilterFromFlags(cmd)
		if err != nil {
			return err
		}
		filter.Limit = 10000

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		formatRunStats(os.Stdout, computeRunStats(runs))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{runsListCmd, runsStatsCmd} {
		c.Flags().String("status", "", "filter by run status (running, complete, failed)")
		c.Flags().String("source", "", "filter by source (perenual, gbif, inaturalist, manual)")
	}
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

func runFilterFromFlags(cmd *cobra.Command) (store.RunFilter, error) {
	status, _ := cmd.Flags().GetString("status")
	src, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := store.RunFilter{Status: model.RunStatus(status), Limit: limit}
	if src != "" {
		kind, ok := model.ParseSource(src)
		if !ok {
			return filter, eris.Errorf("unknown source %q", src)
		}
		filter.Source = kind
	}
	return filter, nil
}

type sourceTally struct {
	Runs     int
	Imported int
}

// runStats summarizes a set of runs.
type runStats struct {
	Total      int
	Complete   int
	Failed     int
	Running    int
	Imported   int
	Skipped    int
	Rejected   int
	AvgDurSecs float64
	BySource   map[model.Source]sourceTally
}

// SuccessRate is the share of finished runs that completed.
func (s runStats) SuccessRate() float64 {
	finished := s.Complete + s.Failed
	if finished == 0 {
		return 0
	}
	return float64(s.Complete) / float64(finished)
}

func computeRunStats(runs []model.ImportRun) runStats {
	var s runStats
	if len(runs) == 0 {
		return s
	}
	s.Total = len(runs)
	s.BySource = make(map[model.Source]sourceTally)

	var elapsed []time.Duration
	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			s.Complete++
		case model.RunStatusFailed:
			s.Failed++
		default:
			s.Running++
		}
		s.Imported += r.Imported
		s.Skipped += r.Skipped
		s.Rejected += r.Failed

		t := s.BySource[r.Source]
		t.Runs++
		t.Imported += r.Imported
		s.BySource[r.Source] = t

		if r.CompletedAt != nil {
			elapsed = append(elapsed, r.CompletedAt.Sub(r.CreatedAt))
		}
	}

	if len(elapsed) > 0 {
		var sum time.Duration
		for _, d := range elapsed {
			sum += d
		}
		s.AvgDurSecs = sum.Seconds() / float64(len(elapsed))
	}
	return s
}

func formatRunsList(out io.Writer, runs []model.ImportRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN\tSOURCE\tQUERY\tSTATUS\tNEW\tDUPES\tFAILED\tSTARTED\tTOOK")
	for _, r := range runs {
		took := "-"
		if r.CompletedAt != nil {
			took = r.CompletedAt.Sub(r.CreatedAt).Round(time.Second).String()
		}
		status := string(r.Status)
		if r.Error != "" {
			status += " (" + truncate(r.Error, 24) + ")"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			truncateID(r.ID), r.Source, truncate(r.Query, 30), status,
			r.Imported, r.Skipped, r.Failed,
			r.CreatedAt.Format("2006-01-02 15:04"), took)
	}
	_ = w.Flush()
}

func formatRunStats(out io.Writer, s runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d (%d complete, %d failed, %d running)\n", s.Total, s.Complete, s.Failed, s.Running)
	if s.Complete+s.Failed > 0 {
		_, _ = fmt.Fprintf(w, "Success rate:\t%.0f%%\n", s.SuccessRate()*100)
	}
	_, _ = fmt.Fprintf(w, "Plants imported:\t%d\n", s.Imported)
	_, _ = fmt.Fprintf(w, "Duplicates skipped:\t%d\n", s.Skipped)
	_, _ = fmt.Fprintf(w, "Plants failed:\t%d\n", s.Rejected)
	if s.AvgDurSecs > 0 {
		_, _ = fmt.Fprintf(w, "Avg duration:\t%.1fs\n", s.AvgDurSecs)
	}

	sources := make([]string, 0, len(s.BySource))
	for src := range s.BySource {
		sources = append(sources, string(src))
	}
	sort.Strings(sources)
	for _, src := range sources {
		t := s.BySource[model.Source(src)]
		_, _ = fmt.Fprintf(w, "  %s:\t%d runs, %d imported\n", src, t.Runs, t.Imported)
	}
	_ = w.Flush()
}
