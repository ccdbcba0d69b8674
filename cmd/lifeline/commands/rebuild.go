// ABOUTME: CLI command for the end-session insight rebuild
// ABOUTME: Backfills summaries, distills life themes, replaces insight rows
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/lifeline/internal/core"
)

var rebuildUser string

// NewRebuildCmd creates rebuild command
func NewRebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild cross-session insights",
		Long: `Run the full end-session resynthesis: backfill summaries for
recent conversations that were never summarized, distill durable life
themes and a master narrative from every stored summary, merge them
into the lifetime profile, and atomically replace the insight rows.

This is the expensive pipeline stage; run it when a session ends,
not after every turn.

Examples:
  lifeline rebuild --user harper
  lifeline rebuild --user harper --format json`,
		RunE: runRebuild,
	}

	cmd.Flags().StringVar(&rebuildUser, "user", "", "User to rebuild insights for")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runRebuild(cmd *cobra.Command, args []string) error {
	store, cfg, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	rebuilder := core.NewRebuilder(store, gen)
	rebuilder.SetBackfillWindow(cfg.BackfillWindow)
	rebuilder.SetFallbackCount(cfg.FallbackSummaryCount)

	result, err := rebuilder.Rebuild(cmd.Context(), rebuildUser)
	if err != nil {
		return fmt.Errorf("rebuilding insights: %w", err)
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return printJSON(out, result)
	}

	if !result.OK {
		_, _ = fmt.Fprintln(out, result.Message)
		return nil
	}

	if !quiet {
		_, _ = fmt.Fprintf(out, "✓ Rebuilt insights for %s\n", rebuildUser)
		_, _ = fmt.Fprintf(out, "  backfilled %d of %d scanned sessions\n",
			result.Backfill.Inserted, result.Backfill.ScannedSessions)
		if result.LifeThemes != nil {
			for _, theme := range result.LifeThemes.Themes {
				_, _ = fmt.Fprintf(out, "  theme: %s\n", theme.Title)
			}
		}
		if result.UsedFallback {
			_, _ = fmt.Fprintln(out, "  (model unavailable, used deterministic fallback)")
		}
	}
	return nil
}
