// ABOUTME: CLI command printing the stored summary of the last conversation
// ABOUTME: This is the text the next session's greeting is generated from
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/confidant/internal/storage"
)

// NewSummaryCmd creates the summary command
func NewSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the last conversation summary",
		Long: `Show the stored summary of your last conversation.

The summary is written when a session ends and is used to greet you
at the start of the next one.`,
		RunE: runSummary,
	}
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	userID, err := resolveUser(cfg, store)
	if err != nil {
		return err
	}

	profile, err := store.ReadProfile(cmd.Context(), userID)
	if err != nil && !errors.Is(err, storage.ErrProfileNotFound) {
		return fmt.Errorf("getting profile: %w", err)
	}

	if !profile.HasSummary() {
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "No conversation summary yet.")
		}
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), profile.LastConversationSummary)
	return nil
}
