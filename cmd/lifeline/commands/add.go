// ABOUTME: CLI command to append raw conversation turns
// ABOUTME: Handles text input from argument, file, or stdin
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/lifeline/internal/models"
)

var (
	addUser         string
	addConversation string
	addRole         string
	addMedia        string
	addFile         string
)

// NewAddCmd creates add command
func NewAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Append a raw turn to a conversation",
		Long: `Append a raw conversation turn. Turns are append-only input to
the summarization pipeline; run "lifeline summarize" afterwards to
fold new turns into the rolling summary.

Examples:
  lifeline add --user harper --conversation 2026-09-01 "We talked about the farm"
  lifeline add --user harper --conversation 2026-09-01 --role assistant "Tell me more"
  lifeline add --user harper --conversation 2026-09-01 --file transcript.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAdd,
	}

	cmd.Flags().StringVar(&addUser, "user", "", "User the turn belongs to")
	cmd.Flags().StringVar(&addConversation, "conversation", "", "Conversation the turn belongs to")
	cmd.Flags().StringVar(&addRole, "role", "user", "Speaker role (user or assistant)")
	cmd.Flags().StringVar(&addMedia, "media", "text", "Capture medium (text, audio, image, video)")
	cmd.Flags().StringVar(&addFile, "file", "", "Read turn content from file")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("conversation")

	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	var text string
	if addFile != "" {
		data, err := os.ReadFile(addFile)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		text = string(data)
	} else if len(args) > 0 {
		text = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("no text provided")
	}

	role := models.Role(addRole)
	if role != models.RoleUser && role != models.RoleAssistant {
		return fmt.Errorf("invalid role %q (want user or assistant)", addRole)
	}

	store, _, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	id, err := store.Turns.Append(&models.RawTurn{
		UserID:         addUser,
		ConversationID: addConversation,
		Role:           role,
		Content:        text,
		MediaType:      models.MediaType(addMedia),
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}

	if !quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Added turn %d to conversation %s\n", id, addConversation)
	}
	return nil
}
