// ABOUTME: CLI command to list rebuilt insights
// ABOUTME: Shows the lifetime overview first, then individual life themes
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/lifeline/internal/models"
)

var insightsUser string

// NewInsightsCmd creates insights command
func NewInsightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "List rebuilt insights",
		Long: `List the current insight rows: the lifetime overview narrative
followed by each distilled life theme. Rows reflect the most recent
"lifeline rebuild" run.

Examples:
  lifeline insights --user harper
  lifeline insights --user harper --format json`,
		RunE: runInsights,
	}

	cmd.Flags().StringVar(&insightsUser, "user", "", "User whose insights to list")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runInsights(cmd *cobra.Command, args []string) error {
	store, _, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	insights, err := store.Insights.ListByUser(insightsUser)
	if err != nil {
		return fmt.Errorf("loading insights: %w", err)
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return printJSON(out, insights)
	}

	if len(insights) == 0 {
		_, _ = fmt.Fprintf(out, "No insights yet for %s. Run \"lifeline rebuild\" first.\n", insightsUser)
		return nil
	}

	for _, insight := range insights {
		switch insight.Type {
		case models.InsightLifetimeOverview:
			_, _ = fmt.Fprintf(out, "=== %s ===\n", insight.Title)
			_, _ = fmt.Fprintln(out, insight.Content)
		case models.InsightLifeTheme:
			_, _ = fmt.Fprintf(out, "\n• %s\n", insight.Title)
			_, _ = fmt.Fprintf(out, "  %s\n", truncate(insight.Content, 200))
		}
		if verbose {
			_, _ = fmt.Fprintf(out, "  [sources: %s, rebuilt %s]\n",
				strings.Join(insight.SourceConversationIDs, ", "),
				formatTime(insight.Metadata.RebuiltAt))
		}
	}
	return nil
}
