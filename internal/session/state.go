// ABOUTME: In-memory ordered turn log for the current chat session
// ABOUTME: Generation counter lets late results detect that the session rolled over
package session

import (
	"sync"

	"github.com/harper/confidant/internal/models"
)

// Snapshot is an immutable copy of the turn log at a point in time
type Snapshot struct {
	Turns      []models.Turn
	Generation uint64
}

// Empty reports whether the snapshot holds no turns
func (s Snapshot) Empty() bool {
	return len(s.Turns) == 0
}

// State holds the append-only turn sequence of one session.
// Reset swaps in a fresh sequence and bumps the generation.
type State struct {
	mu         sync.RWMutex
	turns      []models.Turn
	generation uint64
}

// NewState creates an empty session state at generation 0
func NewState() *State {
	return &State{turns: []models.Turn{}}
}

// Append adds a turn to the end of the log and returns the generation it joined
func (s *State) Append(turn models.Turn) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, turn)
	return s.generation
}

// AppendIfGeneration appends only while gen is still the current generation
func (s *State) AppendIfGeneration(gen uint64, turn models.Turn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	s.turns = append(s.turns, turn)
	return true
}

// Snapshot returns a copy of the current log
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := make([]models.Turn, len(s.turns))
	copy(turns, s.turns)
	return Snapshot{Turns: turns, Generation: s.generation}
}

// Reset replaces the log with a new empty one and returns the new generation
func (s *State) Reset() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = []models.Turn{}
	s.generation++
	return s.generation
}

// ResetIfGeneration resets only if no other reset happened since gen.
// Turns appended after the snapshot at gen are dropped along with the rest.
func (s *State) ResetIfGeneration(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	s.turns = []models.Turn{}
	s.generation++
	return true
}

// Len returns the number of turns in the current session
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Generation returns the current session generation
func (s *State) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}
