// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents drive a confidant conversation via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/confidant/internal/app"
	"github.com/harper/confidant/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs confidant as an MCP (Model Context Protocol) server over stdio,
so LLM agents can start sessions, exchange messages, report lifecycle
phases and read profiles.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  confidant mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "confidant": {
  #       "command": "confidant",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	userID, err := app.ResolveUserID(a.Config, a.Store, userFlag)
	if err != nil {
		a.Logger.Warn("no default user, tools will need user_id", "err", err)
	}

	server := mcpserver.NewMCPServer("confidant", versionInfo.Version)

	// Register MCP tools and get handlers for shutdown
	handlers := mcp.RegisterTools(server, a.Manager, a.Store, userID, a.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Logger.Info("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			handlers.Shutdown()
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Wait for pending session summaries before closing the store
	handlers.Shutdown()
	a.Logger.Info("shutdown complete")
	return nil
}
