// ABOUTME: Tests for sync command structure
// ABOUTME: Verifies subcommands and the wipe confirmation guard

package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewSyncCmd(t *testing.T) {
	cmd := NewSyncCmd()

	if cmd.Use != "sync" {
		t.Errorf("Use = %q, want %q", cmd.Use, "sync")
	}

	want := map[string]bool{"status": false, "now": false, "wipe": false, "keys": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Use]; ok {
			want[sub.Use] = true
		}
		if sub.Short == "" {
			t.Errorf("%s: Short description should not be empty", sub.Use)
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not found", name)
		}
	}
}

func TestSyncWipe_RequiresConfirm(t *testing.T) {
	cmd := NewSyncCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"wipe"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(output.String(), "--confirm") {
		t.Errorf("output should ask for --confirm, got %q", output.String())
	}
}
