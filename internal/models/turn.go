// ABOUTME: Turn represents a single chat message from the user or the assistant
// ABOUTME: Core data structure of a session transcript
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Speaker identifies who produced a turn
type Speaker int

const (
	SpeakerHuman Speaker = iota
	SpeakerAssistant
)

// Label returns the name used for the speaker in transcripts
func (s Speaker) Label() string {
	switch s {
	case SpeakerHuman:
		return "User"
	case SpeakerAssistant:
		return "Assistant"
	default:
		return "Unknown"
	}
}

func (s Speaker) String() string {
	switch s {
	case SpeakerHuman:
		return "human"
	case SpeakerAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// MarshalText encodes the speaker as its lowercase name
func (s Speaker) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a speaker name
func (s *Speaker) UnmarshalText(text []byte) error {
	switch string(text) {
	case "human":
		*s = SpeakerHuman
	case "assistant":
		*s = SpeakerAssistant
	default:
		return fmt.Errorf("unknown speaker %q", string(text))
	}
	return nil
}

// ErrEmptyTurn is returned when a turn would carry no text
var ErrEmptyTurn = errors.New("turn text cannot be empty")

// Turn is one message exchanged within a session. Treat as immutable once created.
type Turn struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Speaker   Speaker   `json:"speaker"`
}

// NewTurn creates a new Turn with validation
func NewTurn(speaker Speaker, text string) (Turn, error) {
	if strings.TrimSpace(text) == "" {
		return Turn{}, ErrEmptyTurn
	}
	now := time.Now().UTC()
	return Turn{
		ID:        generateTurnID(now),
		Text:      text,
		Timestamp: now,
		Speaker:   speaker,
	}, nil
}

// generateTurnID generates a unique turn identifier
func generateTurnID(now time.Time) string {
	return fmt.Sprintf("turn_%s_%s", now.Format("20060102_150405"), uuid.New().String()[:8])
}

// Transcript renders turns as "<speaker label>: <text>" lines in order
func Transcript(turns []Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, t.Speaker.Label()+": "+t.Text)
	}
	return strings.Join(lines, "\n")
}
