// ABOUTME: Structured logger construction on top of charmbracelet/log
// ABOUTME: Components get a prefixed child logger, e.g. "scribe" or "session"
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a logger writing to w at the given level name ("debug", "info", ...).
// Unknown level names fall back to info.
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
}

// Discard returns a logger that drops everything, for tests and quiet mode
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// Component returns a child logger tagged with a component prefix
func Component(logger *log.Logger, name string) *log.Logger {
	if logger == nil {
		logger = Discard()
	}
	child := logger.With()
	child.SetPrefix(name)
	return child
}
