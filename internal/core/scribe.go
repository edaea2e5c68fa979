// ABOUTME: Scribe agent that condenses a finished session into a summary
// ABOUTME: Summarises the transcript with one completion and persists it to the profile store
package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/confidant/internal/llm"
	"github.com/harper/confidant/internal/logging"
	"github.com/harper/confidant/internal/models"
	"github.com/harper/confidant/internal/storage"
	"github.com/harper/confidant/internal/telemetry"
)

// Summary request parameters
const (
	SummaryMaxTokens   = 500
	SummaryTemperature = 0.7
)

// ProfileStore is the part of the profile store the session core needs
type ProfileStore interface {
	ReadProfile(ctx context.Context, userID string) (*models.Profile, error)
	WriteSummary(ctx context.Context, userID, summary string) error
}

var _ ProfileStore = (storage.ProfileStore)(nil)

// Scribe turns transcripts into summaries and stores them
type Scribe struct {
	completer llm.Completer
	store     ProfileStore
	logger    *log.Logger
	metrics   *telemetry.Metrics
	mu        sync.Mutex // serialises summary writes from this process
}

// NewScribe creates a Scribe. logger and metrics may be nil.
func NewScribe(completer llm.Completer, store ProfileStore, logger *log.Logger, metrics *telemetry.Metrics) *Scribe {
	return &Scribe{
		completer: completer,
		store:     store,
		logger:    logging.Component(logger, "scribe"),
		metrics:   metrics,
	}
}

// SummaryRequest builds the completion request for a transcript
func SummaryRequest(turns []models.Turn) models.CompletionRequest {
	return models.CompletionRequest{
		SystemContext:   SummarizationContext(),
		UserText:        models.Transcript(turns),
		MaxOutputTokens: SummaryMaxTokens,
		Temperature:     SummaryTemperature,
	}
}

// Summarize asks the model for a summary of turns, in order
func (s *Scribe) Summarize(ctx context.Context, turns []models.Turn) (string, error) {
	if len(turns) == 0 {
		return "", fmt.Errorf("nothing to summarize: %w", models.ErrEmptyTurn)
	}

	resp, err := complete(ctx, s.completer, s.metrics, telemetry.KindSummarize, SummaryRequest(turns))
	if err != nil {
		return "", fmt.Errorf("failed to summarize %d turns: %w", len(turns), err)
	}

	summary := strings.TrimSpace(resp.Text)
	s.logger.Debug("summary generated", "turns", len(turns), "chars", len(summary))
	return summary, nil
}

// Persist writes summary into the user's profile. Failures are logged and
// counted; the caller decides whether they matter.
func (s *Scribe) Persist(ctx context.Context, userID, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.WriteSummary(ctx, userID, summary)
	s.metrics.ObserveSummaryWrite(err)
	if err != nil {
		s.logger.Warn("failed to persist summary", "user", userID, "err", err)
		return fmt.Errorf("failed to persist summary: %w", err)
	}

	s.logger.Info("summary persisted", "user", userID)
	return nil
}

// complete runs one completion round trip and records its latency
func complete(ctx context.Context, c llm.Completer, m *telemetry.Metrics, kind string, req models.CompletionRequest) (models.CompletionResponse, error) {
	start := time.Now()
	resp, err := c.Complete(ctx, req)
	m.ObserveCompletion(kind, time.Since(start), err)
	return resp, err
}
