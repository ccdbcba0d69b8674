// ABOUTME: CLI command to recompute and display life-chapter coverage
// ABOUTME: Shows scored buckets in a table or as JSON
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/lifeline/internal/core"
)

var (
	coverageUser      string
	coverageRecompute bool
)

// NewCoverageCmd creates coverage command
func NewCoverageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Show life-chapter coverage scores",
		Long: `Show how thoroughly each life chapter has been explored, scored
0-100 across frequency, depth, diversity, emotion, and insight.

With --recompute the scores are refreshed from the recent turn
window first (requires OPENAI_API_KEY).

Examples:
  lifeline coverage --user harper
  lifeline coverage --user harper --recompute
  lifeline coverage --user harper --format json`,
		RunE: runCoverage,
	}

	cmd.Flags().StringVar(&coverageUser, "user", "", "User to report on")
	cmd.Flags().BoolVar(&coverageRecompute, "recompute", false, "Recompute scores before displaying")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runCoverage(cmd *cobra.Command, args []string) error {
	store, cfg, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if coverageRecompute {
		gen, err := newGenerator(cfg)
		if err != nil {
			return err
		}
		aggregator := core.NewCoverageAggregator(store, gen)
		aggregator.SetTurnWindow(cfg.CoverageTurnWindow)
		if err := aggregator.Recompute(cmd.Context(), coverageUser); err != nil {
			return fmt.Errorf("recomputing coverage: %w", err)
		}
	}

	report, err := store.Coverage.GetReport(coverageUser)
	if err != nil {
		return fmt.Errorf("loading coverage report: %w", err)
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return printJSON(out, report)
	}

	if len(report.Buckets) == 0 {
		_, _ = fmt.Fprintln(out, "No coverage data yet. Run with --recompute after adding conversations.")
		return nil
	}

	_, _ = fmt.Fprintf(out, "Coverage for %s (overall %d/100)\n\n", report.UserID, report.OverallScore)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CHAPTER\tOVERALL\tEVENTS\tLAST CONTRIBUTION")
	for _, b := range report.Buckets {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", b.Chapter, b.Overall, b.EventCount, formatTime(b.LastContribution))
	}
	return w.Flush()
}
