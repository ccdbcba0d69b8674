// ABOUTME: CLI command to run the incremental conversation summarizer
// ABOUTME: Processes turns past the stored anchor and updates the summary row
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/lifeline/internal/core"
)

var (
	summarizeUser         string
	summarizeConversation string
)

// NewSummarizeCmd creates summarize command
func NewSummarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Update the rolling summary for a conversation",
		Long: `Incrementally summarize one conversation. Only turns newer than
the stored anchor are read, so repeated runs are cheap and idempotent.
A successful run also merges the result into the lifetime profile and
refreshes chapter coverage in the background.

Examples:
  lifeline summarize --user harper --conversation 2026-09-01
  lifeline summarize --user harper --conversation 2026-09-01 --format json`,
		RunE: runSummarize,
	}

	cmd.Flags().StringVar(&summarizeUser, "user", "", "User whose conversation to summarize")
	cmd.Flags().StringVar(&summarizeConversation, "conversation", "", "Conversation to summarize")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("conversation")

	return cmd
}

func runSummarize(cmd *cobra.Command, args []string) error {
	store, cfg, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	profiler := core.NewProfiler(store, gen)
	coverage := core.NewCoverageAggregator(store, gen)
	coverage.SetTurnWindow(cfg.CoverageTurnWindow)
	summarizer := core.NewSummarizer(store, gen, profiler, coverage)
	summarizer.SetFirstRunTurnLimit(cfg.FirstRunTurnLimit)

	outcome, err := summarizer.SummarizeConversation(cmd.Context(), summarizeUser, summarizeConversation)
	if err != nil {
		return fmt.Errorf("summarizing: %w", err)
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return printJSON(out, outcome)
	}

	if outcome.NoNewTurns {
		if !quiet {
			_, _ = fmt.Fprintf(out, "Nothing to do: %s\n", outcome.Message)
		}
		return nil
	}

	if !quiet {
		_, _ = fmt.Fprintf(out, "✓ Summarized %s (anchor %d)\n", summarizeConversation, outcome.RawID)
		_, _ = fmt.Fprintf(out, "  %s\n", truncate(outcome.ShortSummary, 100))
		if verbose && len(outcome.Observations.Themes) > 0 {
			_, _ = fmt.Fprintf(out, "  themes: %v\n", outcome.Observations.Themes)
		}
	}
	return nil
}
