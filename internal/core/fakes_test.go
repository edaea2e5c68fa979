// ABOUTME: In-memory completer and profile store used by the core tests
// ABOUTME: Both record every call so tests can count requests and writes
package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/harper/confidant/internal/models"
	"github.com/harper/confidant/internal/storage"
)

type fakeCompleter struct {
	mu       sync.Mutex
	requests []models.CompletionRequest
	respond  func(req models.CompletionRequest) (models.CompletionResponse, error)
}

func newFakeCompleter(text string) *fakeCompleter {
	return &fakeCompleter{
		respond: func(models.CompletionRequest) (models.CompletionResponse, error) {
			return models.CompletionResponse{Text: text}, nil
		},
	}
}

func (f *fakeCompleter) Complete(ctx context.Context, req models.CompletionRequest) (models.CompletionResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	respond := f.respond
	f.mu.Unlock()
	return respond(req)
}

func (f *fakeCompleter) calls() []models.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.CompletionRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

type summaryWrite struct {
	userID  string
	summary string
}

type fakeStore struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	readErr  error
	writeErr error
	reads    int
	writes   []summaryWrite
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: map[string]*models.Profile{}}
}

func (s *fakeStore) ReadProfile(ctx context.Context, userID string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.readErr != nil {
		return nil, s.readErr
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", userID, storage.ErrProfileNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) WriteSummary(ctx context.Context, userID, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, summaryWrite{userID, summary})
	if s.writeErr != nil {
		return s.writeErr
	}
	p, ok := s.profiles[userID]
	if !ok {
		p = &models.Profile{UserID: userID}
		s.profiles[userID] = p
	}
	p.LastConversationSummary = summary
	return nil
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

// isReply distinguishes reply requests from greeting and summary requests
func isReply(req models.CompletionRequest) bool {
	return req.MaxOutputTokens == ReplyMaxTokens
}
