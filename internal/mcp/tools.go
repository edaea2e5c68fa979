// ABOUTME: MCP tool definitions and registration for the confidant server
// ABOUTME: Exposes the session manager so an agent can drive a conversation over stdio
package mcp

import (
	"github.com/charmbracelet/log"
	"github.com/harper/confidant/internal/core"
	"github.com/harper/confidant/internal/logging"
	"github.com/harper/confidant/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, manager *core.SessionManager, store storage.ProfileStore, defaultUserID string, logger *log.Logger) *Handlers {
	handlers := NewHandlers(manager, store, defaultUserID, logging.Component(logger, "mcp"))

	// 1. start_session - Begin a session and return the greeting
	server.AddTool(mcp.Tool{
		Name:        "start_session",
		Description: "Start a conversation session. Reads the user's profile and returns the assistant's greeting, which recalls the previous conversation when one was summarised.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "User id (defaults to the configured user)",
				},
			},
		},
	}, handlers.StartSession)

	// 2. send_message - Send a user message and wait for the reply
	server.AddTool(mcp.Tool{
		Name:        "send_message",
		Description: "Send a user message in the current session and return the assistant's reply.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "What the user says",
				},
			},
			Required: []string{"message"},
		},
	}, handlers.SendMessage)

	// 3. set_lifecycle_phase - Report app foreground/background transitions
	server.AddTool(mcp.Tool{
		Name:        "set_lifecycle_phase",
		Description: "Report the host app's lifecycle phase. Moving to inactive or background ends the session: it is summarised and the summary saved in the background.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"phase": map[string]interface{}{
					"type":        "string",
					"description": "One of active, inactive, background",
					"enum":        []string{"active", "inactive", "background"},
				},
			},
			Required: []string{"phase"},
		},
	}, handlers.SetLifecyclePhase)

	// 4. get_transcript - Everything shown in the conversation so far
	server.AddTool(mcp.Tool{
		Name:        "get_transcript",
		Description: "Get the conversation transcript as displayed, plus how many turns belong to the current session.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.GetTranscript)

	// 5. get_profile - Read a stored profile
	server.AddTool(mcp.Tool{
		Name:        "get_profile",
		Description: "Get the stored profile (name, email, last conversation summary) for a user.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "User id (defaults to the current session's user)",
				},
			},
		},
	}, handlers.GetProfile)

	// 6. update_profile - Set name and email
	server.AddTool(mcp.Tool{
		Name:        "update_profile",
		Description: "Update a user's name and/or email. Omitted fields and the stored summary are left unchanged.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "User id (defaults to the current session's user)",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "User's name",
				},
				"email": map[string]interface{}{
					"type":        "string",
					"description": "User's email",
				},
			},
		},
	}, handlers.UpdateProfile)

	return handlers
}
