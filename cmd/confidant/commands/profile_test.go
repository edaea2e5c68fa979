// ABOUTME: Tests for profile and summary commands
// ABOUTME: Runs them end to end against a temporary SQLite profile store

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/harper/confidant/internal/storage/sqlite"
)

// useSQLite points the CLI at a fresh SQLite store for user u1
func useSQLite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.db")
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("CONFIDANT_STORE", "sqlite")
	t.Setenv("CONFIDANT_SQLITE_PATH", path)
	t.Setenv("CONFIDANT_USER_ID", "u1")
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return output.String(), err
}

func findSub(cmd *cobra.Command, use string) *cobra.Command {
	for _, sub := range cmd.Commands() {
		if sub.Use == use {
			return sub
		}
	}
	return nil
}

func TestNewProfileCmd(t *testing.T) {
	cmd := NewProfileCmd()

	if cmd.Use != "profile" {
		t.Errorf("Use = %q, want %q", cmd.Use, "profile")
	}
	if cmd.Long == "" {
		t.Error("Long description should not be empty")
	}

	setCmd := findSub(cmd, "set")
	if setCmd == nil {
		t.Fatal("set subcommand not found")
	}
	for _, name := range []string{"name", "email"} {
		if setCmd.Flags().Lookup(name) == nil {
			t.Errorf("--%s flag not found on set", name)
		}
	}

	if findSub(cmd, "clear") == nil {
		t.Error("clear subcommand not found")
	}
}

func TestProfileSet_RequiresField(t *testing.T) {
	useSQLite(t)

	if _, err := run(t, "profile", "set"); err == nil {
		t.Error("profile set without flags should fail")
	}
}

func TestProfile_EndToEnd(t *testing.T) {
	path := useSQLite(t)

	out, err := run(t, "profile")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if !strings.Contains(out, "No profile found") {
		t.Errorf("output = %q, want no-profile hint", out)
	}

	if _, err := run(t, "profile", "set", "--name", "Ana", "--email", "ana@example.com"); err != nil {
		t.Fatalf("profile set: %v", err)
	}

	// a summary written by a finished session
	store, err := sqlite.OpenProfileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.WriteSummary(context.Background(), "u1", "They talked about work stress."); err != nil {
		t.Fatal(err)
	}
	store.Close()

	out, err = run(t, "profile", "--format", "json")
	if err != nil {
		t.Fatalf("profile --format json: %v", err)
	}
	var view map[string]interface{}
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if view["userId"] != "u1" || view["name"] != "Ana" || view["email"] != "ana@example.com" {
		t.Errorf("profile = %v", view)
	}
	if view["lastConversationSummary"] != "They talked about work stress." {
		t.Errorf("summary = %v", view["lastConversationSummary"])
	}

	out, err = run(t, "summary")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if strings.TrimSpace(out) != "They talked about work stress." {
		t.Errorf("summary output = %q", out)
	}

	if _, err := run(t, "profile", "clear"); err != nil {
		t.Fatalf("profile clear: %v", err)
	}
	out, _ = run(t, "summary")
	if !strings.Contains(out, "No conversation summary yet") {
		t.Errorf("summary after clear = %q", out)
	}

	out, _ = run(t, "profile")
	if !strings.Contains(out, "Ana") {
		t.Errorf("name should survive clearing the summary, got %q", out)
	}
}

func TestProfile_UserFlagOverridesConfig(t *testing.T) {
	useSQLite(t)

	if _, err := run(t, "--user", "u2", "profile", "set", "--name", "Bo"); err != nil {
		t.Fatal(err)
	}
	out, _ := run(t, "profile")
	if strings.Contains(out, "Bo") {
		t.Errorf("u1 should not see u2's profile: %q", out)
	}
	out, _ = run(t, "--user", "u2", "profile")
	if !strings.Contains(out, "Bo") {
		t.Errorf("u2 profile = %q", out)
	}
}
