// ABOUTME: Shared helpers for CLI commands
// ABOUTME: Loads configuration and builds the logger and app every command starts from
package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/confidant/internal/app"
	"github.com/harper/confidant/internal/config"
	"github.com/harper/confidant/internal/core"
	"github.com/harper/confidant/internal/logging"
)

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatTime formats a time for display
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)
	if diff < time.Minute {
		return "just now"
	} else if diff < time.Hour {
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	} else if diff < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	} else if diff < 7*24*time.Hour {
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
	return t.Format("2006-01-02")
}

// logLevel applies --verbose and --quiet on top of the configured level
func logLevel(configured string) string {
	switch {
	case verbose:
		return "debug"
	case quiet:
		return "error"
	}
	return configured
}

// loadConfig reads .env, the config file and the environment
func loadConfig() (*config.Config, error) {
	// Load .env for API keys
	_ = godotenv.Load()

	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger writes to the command's stderr
func newLogger(w io.Writer, cfg *config.Config) *log.Logger {
	return logging.New(w, logLevel(cfg.LogLevel))
}

// openApp loads configuration and builds the full app
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, newLogger(cmd.ErrOrStderr(), cfg))
	if err != nil {
		return nil, fmt.Errorf("initializing: %w", err)
	}
	return a, nil
}

// openStore loads configuration and opens only the profile store
func openStore(cmd *cobra.Command) (*config.Config, app.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := app.OpenStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing storage: %w", err)
	}
	return cfg, store, nil
}

// resolveUser applies --user, config and store identity, in that order
func resolveUser(cfg *config.Config, store app.Store) (string, error) {
	id, err := app.ResolveUserID(cfg, store, userFlag)
	if errors.Is(err, core.ErrNoAuthenticatedUser) {
		return "", fmt.Errorf("%w: pass --user or set CONFIDANT_USER_ID", err)
	}
	return id, err
}
