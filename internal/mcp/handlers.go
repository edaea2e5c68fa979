// ABOUTME: MCP tool handler implementations for the confidant server
// ABOUTME: Tool failures are reported as error results, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/confidant/internal/core"
	"github.com/harper/confidant/internal/lifecycle"
	"github.com/harper/confidant/internal/logging"
	"github.com/harper/confidant/internal/models"
	"github.com/harper/confidant/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	manager       *core.SessionManager
	store         storage.ProfileStore
	dispatcher    *core.Dispatcher
	monitor       *lifecycle.Monitor
	defaultUserID string
	logger        *log.Logger
	drained       chan struct{}
}

// NewHandlers creates handlers and starts draining background results
func NewHandlers(manager *core.SessionManager, store storage.ProfileStore, defaultUserID string, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = logging.Discard()
	}
	dispatcher := core.NewDispatcher(manager, 8)
	h := &Handlers{
		manager:       manager,
		store:         store,
		dispatcher:    dispatcher,
		monitor:       lifecycle.NewMonitor(dispatcher),
		defaultUserID: defaultUserID,
		logger:        logger,
		drained:       make(chan struct{}),
	}
	go h.drain()
	return h
}

// drain logs background outcomes; nobody else reads them in server mode
func (h *Handlers) drain() {
	defer close(h.drained)
	for r := range h.dispatcher.Results() {
		if r.Err != nil {
			h.logger.Warn("background task failed", "kind", r.Kind, "err", r.Err)
			continue
		}
		h.logger.Debug("background task done", "kind", r.Kind)
	}
}

// StartSession handles the start_session tool
func (h *Handlers) StartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := request.GetString("user_id", h.defaultUserID)

	greeting, err := h.manager.StartSession(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start session: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"user_id":  h.manager.UserID(),
		"greeting": turnJSON(greeting),
	})
}

// SendMessage handles the send_message tool
func (h *Handlers) SendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("message argument is required and must be a string"), nil
	}

	reply, err := h.manager.SubmitUserMessage(ctx, message)
	switch {
	case errors.Is(err, core.ErrStaleReply):
		// still worth showing; it just no longer counts toward the session
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("failed to get reply: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"reply": turnJSON(reply),
		"stale": err != nil,
	})
}

// SetLifecyclePhase handles the set_lifecycle_phase tool
func (h *Handlers) SetLifecyclePhase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("phase")
	if err != nil {
		return mcp.NewToolResultError("phase argument is required and must be a string"), nil
	}
	phase, err := lifecycle.ParsePhase(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// the summary outlives this request, so it must not inherit its cancellation
	event, err := h.monitor.Observe(context.WithoutCancel(ctx), phase)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lifecycle event failed: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"phase": phase.String(),
		"event": event.String(),
	})
}

// GetTranscript handles the get_transcript tool
func (h *Handlers) GetTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	turns := h.manager.Turns()
	out := make([]map[string]interface{}, 0, len(turns))
	for _, t := range turns {
		out = append(out, turnJSON(t))
	}

	return jsonResult(map[string]interface{}{
		"state":         h.manager.State().String(),
		"turns":         out,
		"session_turns": len(h.manager.SessionTurns()),
	})
}

// GetProfile handles the get_profile tool
func (h *Handlers) GetProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := h.userID(request)
	if userID == "" {
		return mcp.NewToolResultError(core.ErrNoAuthenticatedUser.Error()), nil
	}

	profile, err := h.store.ReadProfile(ctx, userID)
	if errors.Is(err, storage.ErrProfileNotFound) {
		profile = &models.Profile{UserID: userID}
	} else if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load profile: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"profile": profileJSON(profile),
	})
}

// UpdateProfile handles the update_profile tool
func (h *Handlers) UpdateProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := h.userID(request)
	if userID == "" {
		return mcp.NewToolResultError(core.ErrNoAuthenticatedUser.Error()), nil
	}

	update := &models.Profile{
		UserID: userID,
		Name:   strings.TrimSpace(request.GetString("name", "")),
		Email:  strings.TrimSpace(request.GetString("email", "")),
	}
	if update.Name == "" && update.Email == "" {
		return mcp.NewToolResultError("provide name and/or email"), nil
	}

	if err := h.store.SaveProfile(ctx, update); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save profile: %v", err)), nil
	}

	profile, err := h.store.ReadProfile(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to reload profile: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"success": true,
		"profile": profileJSON(profile),
	})
}

// Shutdown waits for pending session summaries to complete
func (h *Handlers) Shutdown() {
	h.logger.Info("waiting for pending session work")
	h.dispatcher.Shutdown()
	<-h.drained
	h.logger.Info("session work completed")
}

func (h *Handlers) userID(request mcp.CallToolRequest) string {
	if id := strings.TrimSpace(request.GetString("user_id", "")); id != "" {
		return id
	}
	if id := h.manager.UserID(); id != "" {
		return id
	}
	return h.defaultUserID
}

func turnJSON(t models.Turn) map[string]interface{} {
	return map[string]interface{}{
		"id":        t.ID,
		"speaker":   t.Speaker.String(),
		"text":      t.Text,
		"timestamp": t.Timestamp.Format(time.RFC3339),
	}
}

func profileJSON(p *models.Profile) map[string]interface{} {
	out := map[string]interface{}{
		"user_id":                   p.UserID,
		"name":                      p.Name,
		"email":                     p.Email,
		"last_conversation_summary": p.LastConversationSummary,
	}
	if !p.UpdatedAt.IsZero() {
		out["updated_at"] = p.UpdatedAt.Format(time.RFC3339)
	}
	return out
}

func jsonResult(response map[string]interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
