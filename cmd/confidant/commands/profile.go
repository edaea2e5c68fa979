// ABOUTME: CLI command to view and update the stored user profile
// ABOUTME: Shows name, email and the last conversation summary
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/confidant/internal/models"
	"github.com/harper/confidant/internal/storage"
)

var (
	profileName  string
	profileEmail string
)

// NewProfileCmd creates profile command
func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "View and manage user profile",
		Long: `View and manage your user profile.

The profile holds your name and email, and the summary of your last
conversation that the next greeting picks up from.

Examples:
  confidant profile
  confidant profile --format json
  confidant profile set --name "Ana"
  confidant profile set --email ana@example.com
  confidant profile clear`,
		RunE: runProfileShow,
	}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Update profile fields",
		Long: `Update profile fields. Fields you do not pass, and the stored
conversation summary, are left unchanged.

Examples:
  confidant profile set --name "Ana"
  confidant profile set --name "Ana" --email ana@example.com`,
		RunE: runProfileSet,
	}
	setCmd.Flags().StringVar(&profileName, "name", "", "Set user name")
	setCmd.Flags().StringVar(&profileEmail, "email", "", "Set user email")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the last conversation summary",
		Long: `Forget the last conversation summary. The next session starts with
a plain greeting. Name and email are kept.`,
		RunE: runProfileClear,
	}

	cmd.AddCommand(setCmd)
	cmd.AddCommand(clearCmd)

	return cmd
}

func runProfileShow(cmd *cobra.Command, args []string) error {
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
	if errors.Is(err, storage.ErrProfileNotFound) {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No profile found. Create one with: confidant profile set --name \"Your Name\"\n")
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("getting profile: %w", err)
	}

	return printProfile(cmd.OutOrStdout(), profile)
}

func printProfile(out io.Writer, profile *models.Profile) error {
	if outputFormat == "json" {
		view := struct {
			UserID string `json:"userId"`
			*models.Profile
		}{profile.UserID, profile}
		jsonData, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(out, "%s\n", jsonData)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "FIELD\tVALUE\n")
	fmt.Fprintf(w, "-----\t-----\n")
	fmt.Fprintf(w, "User\t%s\n", profile.UserID)
	fmt.Fprintf(w, "Name\t%s\n", orNotSet(profile.Name))
	fmt.Fprintf(w, "Email\t%s\n", orNotSet(profile.Email))
	fmt.Fprintf(w, "Last Summary\t%s\n", truncate(orNotSet(profile.LastConversationSummary), 60))
	fmt.Fprintf(w, "Last Updated\t%s\n", formatTime(profile.UpdatedAt))
	w.Flush()

	if len([]rune(profile.LastConversationSummary)) > 60 {
		fmt.Fprintf(out, "\nLast conversation:\n  %s\n", profile.LastConversationSummary)
	}
	return nil
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	if profileName == "" && profileEmail == "" {
		return fmt.Errorf("no updates specified. Use --name or --email")
	}

	cfg, store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	userID, err := resolveUser(cfg, store)
	if err != nil {
		return err
	}

	update := &models.Profile{UserID: userID, Name: profileName, Email: profileEmail}
	if err := store.SaveProfile(cmd.Context(), update); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Profile updated successfully\n")
	}
	return nil
}

func runProfileClear(cmd *cobra.Command, args []string) error {
	cfg, store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	userID, err := resolveUser(cfg, store)
	if err != nil {
		return err
	}

	if err := store.ClearSummary(cmd.Context(), userID); err != nil {
		return fmt.Errorf("clearing summary: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Conversation summary cleared\n")
	}
	return nil
}
