// ABOUTME: Root CLI command with global flags and subcommand registration
// ABOUTME: Execute is the single entry point called from main
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
	format  string
)

const banner = `
██╗     ██╗███████╗███████╗██╗     ██╗███╗   ██╗███████╗
██║     ██║██╔════╝██╔════╝██║     ██║████╗  ██║██╔════╝
██║     ██║█████╗  █████╗  ██║     ██║██╔██╗ ██║█████╗
██║     ██║██╔══╝  ██╔══╝  ██║     ██║██║╚██╗██║██╔══╝
███████╗██║██║     ███████╗███████╗██║██║ ╚████║███████╗
╚══════╝╚═╝╚═╝     ╚══════╝╚══════╝╚═╝╚═╝  ╚═══╝╚══════╝
`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lifeline",
		Short: "Incremental life-story memory pipeline",
		Long: banner + `
Lifeline records conversation turns and distills them into layered
memory: rolling per-conversation summaries, a lifetime profile,
life-chapter coverage scores, and rebuilt cross-session insights.

All data lives in a local SQLite database. Summarization commands
need OPENAI_API_KEY (a .env file is loaded if present).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return fmt.Errorf("--verbose and --quiet are mutually exclusive")
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().StringVar(&format, "format", "auto", "Output format (auto, text, json)")

	cmd.AddCommand(NewAddCmd())
	cmd.AddCommand(NewSummarizeCmd())
	cmd.AddCommand(NewCoverageCmd())
	cmd.AddCommand(NewRebuildCmd())
	cmd.AddCommand(NewProfileCmd())
	cmd.AddCommand(NewInsightsCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
