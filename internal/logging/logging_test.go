// ABOUTME: Tests for logger construction and level parsing
package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
		infoSeen  bool
	}{
		{"debug", true, true},
		{"INFO", false, true},
		{"warn", false, false},
		{"nonsense", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, tt.level)

			logger.Debug("debug line")
			logger.Info("info line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.debugSeen {
				t.Errorf("debug visible = %v, want %v (output %q)", got, tt.debugSeen, out)
			}
			if got := strings.Contains(out, "info line"); got != tt.infoSeen {
				t.Errorf("info visible = %v, want %v (output %q)", got, tt.infoSeen, out)
			}
		})
	}
}

func TestComponent_Prefix(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(New(&buf, "info"), "scribe")

	logger.Info("summary stored", "user", "u1")

	out := buf.String()
	if !strings.Contains(out, "scribe") {
		t.Errorf("output %q should contain component prefix", out)
	}
	if !strings.Contains(out, "user=u1") {
		t.Errorf("output %q should contain key/value pair", out)
	}
}

func TestComponent_NilParent(t *testing.T) {
	logger := Component(nil, "x")
	if logger == nil {
		t.Fatal("Component(nil) returned nil")
	}
	logger.Error("dropped")
}

func TestDiscard(t *testing.T) {
	Discard().Error("goes nowhere")
}
