// ABOUTME: Conversation session manager orchestrating greeting, replies and session summaries
// ABOUTME: Owns the session log and the display transcript; driven by lifecycle boundary events
package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/harper/confidant/internal/enrichment"
	"github.com/harper/confidant/internal/lifecycle"
	"github.com/harper/confidant/internal/llm"
	"github.com/harper/confidant/internal/logging"
	"github.com/harper/confidant/internal/models"
	"github.com/harper/confidant/internal/session"
	"github.com/harper/confidant/internal/storage"
	"github.com/harper/confidant/internal/telemetry"
)

// Request parameters
const (
	ReplyMaxTokens      = 1024
	ReplyTemperature    = 0
	GreetingMaxTokens   = 256
	GreetingTemperature = 0.7

	// DefaultEnrichmentProbability is the chance a reply request carries a recommendation
	DefaultEnrichmentProbability = 0.5

	// SummaryLeadIn prefixes the summary turn shown after a session ends
	SummaryLeadIn = "In the last conversation, you talked about: "
)

var (
	// ErrNoAuthenticatedUser means no user id was available for profile access
	ErrNoAuthenticatedUser = errors.New("no authenticated user")
	// ErrEmptyMessage is returned for blank user input
	ErrEmptyMessage = errors.New("message cannot be empty")
	// ErrStaleReply means a reply arrived after its session ended and was kept out of the new session
	ErrStaleReply = errors.New("reply belongs to an ended session")
)

// State is the manager's coarse state
type State int

const (
	StateIdle State = iota
	StateSessionActive
)

func (s State) String() string {
	if s == StateSessionActive {
		return "sessionActive"
	}
	return "idle"
}

// Deps are the collaborators a SessionManager needs. Enrichment, Logger and
// Metrics are optional.
type Deps struct {
	Completer  llm.Completer
	Store      ProfileStore
	Enrichment enrichment.Source
	Logger     *log.Logger
	Metrics    *telemetry.Metrics
}

// Option configures a SessionManager
type Option func(*SessionManager)

// WithEnrichmentProbability sets the chance in [0,1] that a reply carries a recommendation
func WithEnrichmentProbability(p float64) Option {
	return func(m *SessionManager) {
		m.enrichmentProbability = min(max(p, 0), 1)
	}
}

// WithRandom replaces the random source used for enrichment rolls; f must return values in [0,1)
func WithRandom(f func() float64) Option {
	return func(m *SessionManager) { m.random = f }
}

// WithPicker replaces the function choosing which recommendation to use out of n
func WithPicker(f func(n int) int) Option {
	return func(m *SessionManager) { m.pick = f }
}

// WithDiscardStaleReplies controls whether replies that outlive their session
// are kept out of the next session's log
func WithDiscardStaleReplies(discard bool) Option {
	return func(m *SessionManager) { m.discardStale = discard }
}

// WithOnChange registers a callback receiving the display transcript after every change
func WithOnChange(f func([]models.Turn)) Option {
	return func(m *SessionManager) { m.onChange = f }
}

// SessionManager runs one user's conversation. All methods are safe for
// concurrent use; completions run without holding any lock.
type SessionManager struct {
	completer  llm.Completer
	store      ProfileStore
	enrichment enrichment.Source
	logger     *log.Logger
	metrics    *telemetry.Metrics
	scribe     *Scribe

	enrichmentProbability float64
	random                func() float64
	pick                  func(n int) int
	discardStale          bool
	onChange              func([]models.Turn)

	// session is what gets summarised; display is everything shown to the user
	session *session.State

	// endMu makes snapshot, summarise, persist and reset one step, so
	// back-to-back session ends never summarise the same turns twice
	endMu sync.Mutex

	mu      sync.Mutex
	state   State
	userID  string
	profile *models.Profile
	display []models.Turn
}

var _ lifecycle.Listener = (*SessionManager)(nil)

// NewSessionManager creates an idle manager
func NewSessionManager(deps Deps, opts ...Option) *SessionManager {
	m := &SessionManager{
		completer:             deps.Completer,
		store:                 deps.Store,
		enrichment:            deps.Enrichment,
		logger:                logging.Component(deps.Logger, "session"),
		metrics:               deps.Metrics,
		scribe:                NewScribe(deps.Completer, deps.Store, deps.Logger, deps.Metrics),
		enrichmentProbability: DefaultEnrichmentProbability,
		random:                rand.Float64,
		pick:                  rand.IntN,
		discardStale:          true,
		session:               session.NewState(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns idle or sessionActive
func (m *SessionManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// UserID returns the user of the current session, empty when none
func (m *SessionManager) UserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID
}

// Profile returns a copy of the profile read at session start, nil when none was found
func (m *SessionManager) Profile() *models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return nil
	}
	p := *m.profile
	return &p
}

// Turns returns a copy of the display transcript
func (m *SessionManager) Turns() []models.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := make([]models.Turn, len(m.display))
	copy(turns, m.display)
	return turns
}

// SessionTurns returns the turns that would be summarised if the session ended now
func (m *SessionManager) SessionTurns() []models.Turn {
	return m.session.Snapshot().Turns
}

// StartSession reads the user's profile and produces the opening assistant turn.
// A prior summary yields one generated greeting; otherwise the greeting is static.
// Calling it again starts a new session with an empty log.
func (m *SessionManager) StartSession(ctx context.Context, userID string) (models.Turn, error) {
	userID = strings.TrimSpace(userID)

	m.mu.Lock()
	restart := m.state == StateSessionActive
	m.state = StateSessionActive
	m.userID = userID
	m.profile = nil
	m.mu.Unlock()

	if restart {
		m.session.Reset()
	}
	gen := m.session.Generation()

	profile := m.loadProfile(ctx, userID)
	m.mu.Lock()
	m.profile = profile
	m.mu.Unlock()

	text := DefaultGreeting(profile.DisplayName())
	if profile.HasSummary() {
		req := models.CompletionRequest{
			SystemContext:   BuildPersonaContext(PersonaOptions{Summary: profile.LastConversationSummary}),
			MaxOutputTokens: GreetingMaxTokens,
			Temperature:     GreetingTemperature,
		}
		resp, err := complete(ctx, m.completer, m.metrics, telemetry.KindGreeting, req)
		if err != nil {
			m.logger.Warn("greeting completion failed, using static greeting", "user", userID, "err", err)
		} else if t := strings.TrimSpace(resp.Text); t != "" {
			text = t
		}
	}

	greeting, err := models.NewTurn(models.SpeakerAssistant, text)
	if err != nil {
		return models.Turn{}, fmt.Errorf("failed to create greeting: %w", err)
	}
	m.record(gen, greeting)

	m.logger.Info("session started", "user", userID, "summary", profile.HasSummary())
	return greeting, nil
}

// loadProfile treats every failure as "no prior summary"
func (m *SessionManager) loadProfile(ctx context.Context, userID string) *models.Profile {
	if userID == "" {
		m.logger.Warn("starting session without a user", "err", ErrNoAuthenticatedUser)
		return nil
	}

	profile, err := m.store.ReadProfile(ctx, userID)
	switch {
	case err == nil:
		return profile
	case errors.Is(err, storage.ErrProfileNotFound):
		m.logger.Info("no profile yet", "user", userID)
	default:
		m.logger.Warn("failed to read profile, continuing without summary", "user", userID, "err", err)
	}
	return nil
}

// PendingReply is a user turn that has been recorded but not answered yet
type PendingReply struct {
	Human      models.Turn
	generation uint64
}

// BeginUserMessage records the human turn and returns the reply still owed
func (m *SessionManager) BeginUserMessage(text string) (PendingReply, error) {
	if strings.TrimSpace(text) == "" {
		return PendingReply{}, ErrEmptyMessage
	}

	human, err := models.NewTurn(models.SpeakerHuman, text)
	if err != nil {
		return PendingReply{}, err
	}

	gen := m.session.Append(human)
	m.appendDisplay(human)
	m.metrics.IncTurn(models.SpeakerHuman.String())
	m.notify()

	return PendingReply{Human: human, generation: gen}, nil
}

// CompleteReply requests the assistant reply for a pending user turn.
// On failure no assistant turn is added and the human turn stays.
func (m *SessionManager) CompleteReply(ctx context.Context, pending PendingReply) (models.Turn, error) {
	req := models.CompletionRequest{
		SystemContext:   BuildPersonaContext(PersonaOptions{Enrichment: m.enrichmentSnippet(ctx)}),
		UserText:        pending.Human.Text,
		MaxOutputTokens: ReplyMaxTokens,
		Temperature:     ReplyTemperature,
	}

	resp, err := complete(ctx, m.completer, m.metrics, telemetry.KindReply, req)
	if err != nil {
		m.logger.Warn("reply completion failed", "err", err)
		return models.Turn{}, err
	}

	reply, err := models.NewTurn(models.SpeakerAssistant, resp.Text)
	if err != nil {
		return models.Turn{}, fmt.Errorf("%w: %v", llm.ErrMalformedResponse, err)
	}

	if !m.record(pending.generation, reply) {
		return reply, ErrStaleReply
	}
	return reply, nil
}

// SubmitUserMessage records the user's text and waits for the assistant reply
func (m *SessionManager) SubmitUserMessage(ctx context.Context, text string) (models.Turn, error) {
	pending, err := m.BeginUserMessage(text)
	if err != nil {
		return models.Turn{}, err
	}
	return m.CompleteReply(ctx, pending)
}

// enrichmentSnippet rolls for a recommendation; empty means none this time
func (m *SessionManager) enrichmentSnippet(ctx context.Context) string {
	if m.enrichment == nil || m.random() >= m.enrichmentProbability {
		return ""
	}

	videos, err := m.enrichment.Videos(ctx)
	if err != nil {
		m.logger.Warn("enrichment unavailable", "err", err)
		return enrichment.NoEnrichment
	}
	pick := 0
	if len(videos) > 1 {
		pick = m.pick(len(videos))
	}
	return enrichment.Snippet(videos, pick)
}

// OnSessionEnded summarises the session, shows and persists the summary, and
// starts a fresh session log. An empty session is left alone. If summarising
// fails nothing is reset; a failed write still resets. Concurrent calls run
// one at a time, so a second end sees the already reset log.
func (m *SessionManager) OnSessionEnded(ctx context.Context) error {
	m.endMu.Lock()
	defer m.endMu.Unlock()

	snap := m.session.Snapshot()
	if snap.Empty() {
		m.logger.Debug("session ended with no turns")
		return nil
	}

	userID := m.UserID()
	if userID == "" {
		m.logger.Warn("skipping summary", "err", ErrNoAuthenticatedUser)
		return ErrNoAuthenticatedUser
	}

	summary, err := m.scribe.Summarize(ctx, snap.Turns)
	if err != nil {
		m.logger.Warn("session summary failed, keeping session", "user", userID, "err", err)
		return err
	}

	if leadIn, err := models.NewTurn(models.SpeakerAssistant, SummaryLeadIn+summary); err == nil {
		m.appendDisplay(leadIn)
		m.metrics.IncTurn(models.SpeakerAssistant.String())
	}

	writeErr := m.scribe.Persist(ctx, userID, summary)

	if !m.session.ResetIfGeneration(snap.Generation) {
		m.logger.Debug("session already reset", "generation", snap.Generation)
	}
	m.notify()

	m.logger.Info("session ended", "user", userID, "turns", len(snap.Turns))
	return writeErr
}

// OnSessionResumed does nothing: the next greeting only happens on StartSession
func (m *SessionManager) OnSessionResumed(ctx context.Context) {
	m.logger.Debug("session resumed")
}

// Summarize produces a summary of turns without touching any state
func (m *SessionManager) Summarize(ctx context.Context, turns []models.Turn) (string, error) {
	return m.scribe.Summarize(ctx, turns)
}

// record adds an assistant turn to the display and, unless it is stale, to the
// session log. It reports whether the turn joined the session it was meant for.
func (m *SessionManager) record(gen uint64, turn models.Turn) bool {
	current := true
	if m.discardStale {
		current = m.session.AppendIfGeneration(gen, turn)
		if !current {
			m.metrics.IncStale()
			m.logger.Debug("kept stale turn out of session log", "generation", gen)
		}
	} else {
		m.session.Append(turn)
	}

	m.appendDisplay(turn)
	m.metrics.IncTurn(turn.Speaker.String())
	m.notify()
	return current
}

func (m *SessionManager) appendDisplay(turn models.Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.display = append(m.display, turn)
}

func (m *SessionManager) notify() {
	if m.onChange == nil {
		return
	}
	m.onChange(m.Turns())
}
