// ABOUTME: Edge-triggered app lifecycle monitor
// ABOUTME: Turns foreground/background phase reports into session boundary events
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Phase is the host app's lifecycle state
type Phase int

const (
	PhaseActive Phase = iota
	PhaseInactive
	PhaseBackground
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseInactive:
		return "inactive"
	case PhaseBackground:
		return "background"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// backgrounded reports whether the phase counts as "not in front of the user"
func (p Phase) backgrounded() bool {
	return p == PhaseInactive || p == PhaseBackground
}

// ParsePhase parses "active", "inactive" or "background", case-insensitively.
// "foreground" is accepted as an alias for active.
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "foreground":
		return PhaseActive, nil
	case "inactive":
		return PhaseInactive, nil
	case "background":
		return PhaseBackground, nil
	}
	return 0, fmt.Errorf("unknown lifecycle phase %q", s)
}

// Event is emitted on a phase transition
type Event int

const (
	EventNone Event = iota
	EventSessionEnded
	EventSessionResumed
)

func (e Event) String() string {
	switch e {
	case EventSessionEnded:
		return "sessionEnded"
	case EventSessionResumed:
		return "sessionResumed"
	default:
		return "none"
	}
}

// Listener receives session boundary events
type Listener interface {
	OnSessionEnded(ctx context.Context) error
	OnSessionResumed(ctx context.Context)
}

// Monitor tracks the last observed phase for edge detection
type Monitor struct {
	mu       sync.Mutex
	phase    Phase
	listener Listener
}

// NewMonitor creates a monitor starting in the active phase.
// listener may be nil when the caller only inspects returned events.
func NewMonitor(listener Listener) *Monitor {
	return &Monitor{phase: PhaseActive, listener: listener}
}

// Phase returns the last observed phase
func (m *Monitor) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Observe records a phase report and returns the event it produced.
// The listener runs synchronously while the monitor lock is held, so events
// are delivered in report order.
func (m *Monitor) Observe(ctx context.Context, next Phase) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.phase
	if next == prev {
		return EventNone, nil
	}
	m.phase = next

	switch {
	case next.backgrounded():
		if m.listener != nil {
			return EventSessionEnded, m.listener.OnSessionEnded(ctx)
		}
		return EventSessionEnded, nil
	case next == PhaseActive && prev.backgrounded():
		if m.listener != nil {
			m.listener.OnSessionResumed(ctx)
		}
		return EventSessionResumed, nil
	}
	return EventNone, nil
}
