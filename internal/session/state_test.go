// ABOUTME: Tests for the session turn log
// ABOUTME: Covers ordering, snapshot isolation, reset and generation checks
package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/confidant/internal/models"
)

func turn(t *testing.T, speaker models.Speaker, text string) models.Turn {
	t.Helper()
	tr, err := models.NewTurn(speaker, text)
	require.NoError(t, err)
	return tr
}

func TestState_AppendPreservesOrder(t *testing.T) {
	s := NewState()

	s.Append(turn(t, models.SpeakerHuman, "one"))
	s.Append(turn(t, models.SpeakerAssistant, "two"))
	s.Append(turn(t, models.SpeakerHuman, "two"))

	snap := s.Snapshot()
	require.Len(t, snap.Turns, 3)
	assert.Equal(t, "one", snap.Turns[0].Text)
	assert.Equal(t, "two", snap.Turns[1].Text)
	assert.Equal(t, "two", snap.Turns[2].Text, "duplicates are kept")
	assert.Equal(t, 3, s.Len())
}

func TestState_SnapshotIsIsolated(t *testing.T) {
	s := NewState()
	s.Append(turn(t, models.SpeakerHuman, "first"))

	snap := s.Snapshot()
	s.Append(turn(t, models.SpeakerHuman, "second"))
	snap.Turns[0].Text = "mutated"

	assert.Len(t, snap.Turns, 1)
	assert.Equal(t, "first", s.Snapshot().Turns[0].Text)
}

func TestState_Reset(t *testing.T) {
	s := NewState()
	s.Append(turn(t, models.SpeakerHuman, "hello"))
	before := s.Snapshot()

	gen := s.Reset()

	assert.Equal(t, uint64(1), gen)
	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Snapshot().Empty())
	assert.Len(t, before.Turns, 1, "earlier snapshot survives reset")
}

func TestState_AppendIfGeneration(t *testing.T) {
	s := NewState()
	gen := s.Append(turn(t, models.SpeakerHuman, "question"))

	s.Reset()

	ok := s.AppendIfGeneration(gen, turn(t, models.SpeakerAssistant, "late answer"))
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())

	ok = s.AppendIfGeneration(s.Generation(), turn(t, models.SpeakerAssistant, "fresh"))
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestState_ResetIfGeneration(t *testing.T) {
	s := NewState()
	s.Append(turn(t, models.SpeakerHuman, "a"))
	snap := s.Snapshot()

	assert.True(t, s.ResetIfGeneration(snap.Generation))
	assert.False(t, s.ResetIfGeneration(snap.Generation), "second reset at stale generation is refused")
	assert.Equal(t, uint64(1), s.Generation())
}

func TestState_ConcurrentAppends(t *testing.T) {
	s := NewState()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr, err := models.NewTurn(models.SpeakerHuman, fmt.Sprintf("msg %d", i))
			if err == nil {
				s.Append(tr)
			}
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, s.Len())
}
