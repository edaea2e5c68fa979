// ABOUTME: Version command to display build information
// ABOUTME: Shows version, commit hash, build date and the configured model and profile store
package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harper/confidant/internal/config"
	"github.com/harper/confidant/internal/storage/sqlite"
)

var (
	versionInfo = VersionInfo{
		Version: "dev",
		Commit:  "none",
		Date:    "unknown",
	}
)

// VersionInfo contains build information
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// SetVersion sets the version information (called from main)
func SetVersion(version, commit, date string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.Date = date
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version, commit hash, and build date for the confidant CLI,
along with the chat model and profile store the current configuration selects.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "confidant %s\n", versionInfo.Version)
			fmt.Fprintf(out, "Commit: %s\n", versionInfo.Commit)
			fmt.Fprintf(out, "Built:  %s\n", versionInfo.Date)
			printRuntimeConfig(out)
		},
	}

	return cmd
}

// printRuntimeConfig reports what a chat would talk to; config errors are shown, not fatal
func printRuntimeConfig(out io.Writer) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(out, "Config: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Model:  %s\n", cfg.ChatModel)
	store := cfg.StoreBackend
	if store == config.StoreSQLite {
		path := cfg.SQLitePath
		if path == "" {
			path = sqlite.DefaultDBPath()
		}
		store += " (" + path + ")"
	} else {
		store += " (" + cfg.CharmHost + ")"
	}
	fmt.Fprintf(out, "Store:  %s\n", store)
}
