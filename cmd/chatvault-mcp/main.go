// chatvault-mcp serves the history store and the payment tools over the
// Model Context Protocol on stdio, so any MCP-capable agent can use them.
package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/chatvault/chatvault/internal/config"
	"github.com/chatvault/chatvault/internal/history"
	"github.com/chatvault/chatvault/internal/logger"
	"github.com/chatvault/chatvault/pkg/tools"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "error", err)
		return
	}
	logger.SetLevel(cfg.LogLevel)

	ctx := context.Background()

	if cfg.History.Backend == config.BackendBigtable {
		if err := history.EnsureBigtableTable(ctx, cfg.History.Bigtable); err != nil {
			logger.L.Error("failed to prepare bigtable table", "error", err)
			return
		}
	}
	store, err := history.NewStore(ctx, cfg.History)
	if err != nil {
		logger.L.Error("failed to initialize history store", "error", err)
		return
	}

	s := server.NewMCPServer("chatvault", version, server.WithToolCapabilities(false))
	registerHistoryTools(s, store)

	if cfg.Payman.APISecret != "" {
		tm := tools.NewManager()
		tools.RegisterPaymanTools(tm, cfg.Payman)
		for _, t := range tm.List() {
			registerTool(s, t)
		}
	}

	logger.L.Info("serving MCP on stdio", "backend", cfg.History.Backend)
	if err := server.ServeStdio(s); err != nil {
		logger.L.Error("MCP server stopped", "error", err)
	}
}

func registerHistoryTools(s *server.MCPServer, store history.Store) {
	s.AddTool(mcp.NewTool("history_append",
		mcp.WithDescription("Appends a message to a session's chat history."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation the message belongs to")),
		mcp.WithString("role", mcp.Required(), mcp.Description("One of: human, ai, system")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Message text")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		sessionID, _ := args["session_id"].(string)
		role, _ := args["role"].(string)
		content, _ := args["content"].(string)
		if sessionID == "" || content == "" {
			return mcp.NewToolResultError("session_id and content are required"), nil
		}
		switch role {
		case history.RoleHuman, history.RoleAI, history.RoleSystem:
		default:
			return mcp.NewToolResultError("role must be human, ai or system"), nil
		}
		if err := store.AddMessage(ctx, history.NewMessage(sessionID, role, content)); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("message stored"), nil
	})

	s.AddTool(mcp.NewTool("history_messages",
		mcp.WithDescription("Returns a session's chat history in insertion order as JSON."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation to read")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, _ := req.GetArguments()["session_id"].(string)
		msgs, err := store.Messages(ctx, sessionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		b, err := json.Marshal(msgs)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(b)), nil
	})

	s.AddTool(mcp.NewTool("history_search",
		mcp.WithDescription("Searches a session's chat history. Availability depends on the configured backend."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation to search")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to search for")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		sessionID, _ := args["session_id"].(string)
		query, _ := args["query"].(string)
		msgs, err := store.Search(ctx, sessionID, query)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		b, err := json.Marshal(msgs)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(b)), nil
	})

	s.AddTool(mcp.NewTool("history_clear",
		mcp.WithDescription("Irreversibly removes all messages of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation to clear")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, _ := req.GetArguments()["session_id"].(string)
		if err := store.Clear(ctx, sessionID); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("session %s cleared", sessionID)), nil
	})
}

// registerTool exposes a tools.Tool through MCP using its own JSON schema.
func registerTool(s *server.MCPServer, t tools.Tool) {
	s.AddTool(mcp.NewToolWithRawSchema(t.Name(), t.Description(), t.Schema()),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, err := json.Marshal(req.GetArguments())
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			out, err := t.Run(ctx, string(args))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(out), nil
		})
}
