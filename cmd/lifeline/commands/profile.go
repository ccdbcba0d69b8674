// ABOUTME: CLI command to view the lifetime profile
// ABOUTME: Shows the narrative plus structured observations
package commands

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var profileUser string

// NewProfileCmd creates profile command
func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "View the lifetime profile",
		Long: `View the lifetime profile: the single evolving narrative built
by merging every conversation summary, plus the structured
observations accumulated along the way.

Examples:
  lifeline profile --user harper
  lifeline profile --user harper --format json`,
		RunE: runProfile,
	}

	cmd.Flags().StringVar(&profileUser, "user", "", "User whose profile to show")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runProfile(cmd *cobra.Command, args []string) error {
	store, _, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	profile, err := store.Profiles.Get(profileUser)
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}

	out := cmd.OutOrStdout()
	if profile == nil {
		_, _ = fmt.Fprintf(out, "No profile yet for %s. Run \"lifeline summarize\" first.\n", profileUser)
		return nil
	}

	if format == "json" {
		return printJSON(out, profile)
	}

	_, _ = fmt.Fprintf(out, "Profile for %s (updated %s)\n\n", profile.UserID, formatTime(profile.UpdatedAt))
	_, _ = fmt.Fprintln(out, profile.FullProfile)

	if len(profile.Observations) > 0 {
		keys := make([]string, 0, len(profile.Observations))
		for k := range profile.Observations {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		_, _ = fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "%s:\t%v\n", k, profile.Observations[k])
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}
