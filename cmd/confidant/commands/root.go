// ABOUTME: Root command and global flags for the confidant CLI
// ABOUTME: Registers every subcommand and enforces flag exclusivity
package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	userFlag     string
	configFile   string
)

const banner = `
 ██████  ██████  ███    ██ ███████ ██ ██████   █████  ███    ██ ████████
██      ██    ██ ████   ██ ██      ██ ██   ██ ██   ██ ████   ██    ██
██      ██    ██ ██ ██  ██ █████   ██ ██   ██ ███████ ██ ██  ██    ██
██      ██    ██ ██  ██ ██ ██      ██ ██   ██ ██   ██ ██  ██ ██    ██
 ██████  ██████  ██   ████ ██      ██ ██████  ██   ██ ██   ████    ██
`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confidant",
		Short: "A supportive chat companion that remembers your last conversation",
		Long: banner + `
Confidant is a supportive, therapist-style chat companion.

Each conversation is a session. When the session ends (the app goes to the
background, or you leave the chat), it is summarised and the summary is
stored in your profile. The next session opens with a greeting that picks
up where you left off.

Profiles sync through Charm cloud by default, or live in a local SQLite
database with CONFIDANT_STORE=sqlite.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return errors.New("--verbose and --quiet are mutually exclusive")
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, json")
	cmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "User id (defaults to CONFIDANT_USER_ID, then the Charm account id)")
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/confidant/config.toml)")

	cmd.AddCommand(NewChatCmd())
	cmd.AddCommand(NewProfileCmd())
	cmd.AddCommand(NewSummaryCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
