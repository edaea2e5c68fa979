// ABOUTME: Tests for lifecycle edge detection
// ABOUTME: Verifies transitions emit exactly one event and self-transitions emit none
package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	ended   int
	resumed int
	err     error
}

func (r *recordingListener) OnSessionEnded(ctx context.Context) error {
	r.ended++
	return r.err
}

func (r *recordingListener) OnSessionResumed(ctx context.Context) {
	r.resumed++
}

func TestMonitor_Transitions(t *testing.T) {
	tests := []struct {
		name        string
		phases      []Phase
		wantEvents  []Event
		wantEnded   int
		wantResumed int
	}{
		{
			name:       "background from active",
			phases:     []Phase{PhaseBackground},
			wantEvents: []Event{EventSessionEnded},
			wantEnded:  1,
		},
		{
			name:       "repeated background is edge triggered",
			phases:     []Phase{PhaseBackground, PhaseBackground},
			wantEvents: []Event{EventSessionEnded, EventNone},
			wantEnded:  1,
		},
		{
			name:        "round trip",
			phases:      []Phase{PhaseInactive, PhaseActive},
			wantEvents:  []Event{EventSessionEnded, EventSessionResumed},
			wantEnded:   1,
			wantResumed: 1,
		},
		{
			name:       "inactive then background counts as a new transition",
			phases:     []Phase{PhaseInactive, PhaseBackground},
			wantEvents: []Event{EventSessionEnded, EventSessionEnded},
			wantEnded:  2,
		},
		{
			name:       "active while active is a no-op",
			phases:     []Phase{PhaseActive, PhaseActive},
			wantEvents: []Event{EventNone, EventNone},
		},
		{
			name:        "repeated active after resume",
			phases:      []Phase{PhaseBackground, PhaseActive, PhaseActive},
			wantEvents:  []Event{EventSessionEnded, EventSessionResumed, EventNone},
			wantEnded:   1,
			wantResumed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &recordingListener{}
			m := NewMonitor(l)

			var got []Event
			for _, p := range tt.phases {
				ev, err := m.Observe(context.Background(), p)
				require.NoError(t, err)
				got = append(got, ev)
			}

			assert.Equal(t, tt.wantEvents, got)
			assert.Equal(t, tt.wantEnded, l.ended)
			assert.Equal(t, tt.wantResumed, l.resumed)
			assert.Equal(t, tt.phases[len(tt.phases)-1], m.Phase())
		})
	}
}

func TestMonitor_ListenerErrorPropagates(t *testing.T) {
	boom := errors.New("summary failed")
	m := NewMonitor(&recordingListener{err: boom})

	ev, err := m.Observe(context.Background(), PhaseBackground)

	assert.Equal(t, EventSessionEnded, ev)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, PhaseBackground, m.Phase(), "phase is recorded even when the listener fails")
}

func TestMonitor_NilListener(t *testing.T) {
	m := NewMonitor(nil)

	ev, err := m.Observe(context.Background(), PhaseBackground)
	require.NoError(t, err)
	assert.Equal(t, EventSessionEnded, ev)

	ev, err = m.Observe(context.Background(), PhaseActive)
	require.NoError(t, err)
	assert.Equal(t, EventSessionResumed, ev)
}

func TestParsePhase(t *testing.T) {
	tests := []struct {
		in      string
		want    Phase
		wantErr bool
	}{
		{"active", PhaseActive, false},
		{"Foreground", PhaseActive, false},
		{"inactive", PhaseInactive, false},
		{" BACKGROUND ", PhaseBackground, false},
		{"asleep", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePhase(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got.String())
		})
	}
}
