// Package server binds the tool registry and prompt catalog to the Model
// Context Protocol. The MCP runtime owns the session handshake and JSON-RPC
// framing; everything from (tool name, argument map) inward belongs to the
// dispatch engine.
package server

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"geminimcp/internal/domain"
	"geminimcp/internal/prompt"
	"geminimcp/internal/tool"
)

const serverName = "gemini-mcp"

type Options struct {
	Version string
	Logger  *slog.Logger
}

// Server hosts the analysis tools and the prompt catalog over MCP stdio.
type Server struct {
	mcp    *mcpserver.MCPServer
	logger *slog.Logger
}

func New(registry *tool.Registry, catalog *prompt.Catalog, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := mcpserver.NewMCPServer(serverName, opts.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithPromptCapabilities(false),
		mcpserver.WithRecovery(),
		mcpserver.WithInstructions("Tools for large-context codebase analysis backed by the Gemini CLI. Path arguments are turned into @ references inside the Gemini prompt."),
	)

	for _, def := range registry.Definitions() {
		s.AddTool(toolSchema(def), toolHandler(registry))
		logger.Debug("exposed tool", "name", def.Name)
	}
	for _, def := range catalog.Definitions() {
		s.AddPrompt(promptSchema(def), promptHandler(catalog))
		logger.Debug("exposed prompt", "name", def.Name)
	}

	return &Server{mcp: s, logger: logger}
}

// ServeStdio blocks until ctx is cancelled or stdin closes. Protocol errors
// go to stderr; stdout carries only MCP frames.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdio := mcpserver.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(os.Stderr, "", log.LstdFlags))

	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// toolSchema converts a registry definition into the MCP wire schema. Array
// arguments are string arrays; enum values come straight from the template
// tables, so override files extend the published schema too.
func toolSchema(def domain.ToolDefinition) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(def.Description)}
	for _, a := range def.Arguments {
		props := []mcp.PropertyOption{mcp.Description(a.Description)}
		if a.Required {
			props = append(props, mcp.Required())
		}
		switch a.Type {
		case "array":
			props = append(props, mcp.Items(map[string]any{"type": "string"}))
			opts = append(opts, mcp.WithArray(a.Name, props...))
		default:
			if len(a.Enum) > 0 {
				props = append(props, mcp.Enum(a.Enum...))
			}
			opts = append(opts, mcp.WithString(a.Name, props...))
		}
	}
	return mcp.NewTool(def.Name, opts...)
}

// toolHandler routes a tool call through the dispatcher. Execution failures
// come back as ordinary text ("Error: " + stderr); only request-level faults
// (missing required arguments) surface as protocol errors.
func toolHandler(registry *tool.Registry) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := registry.Dispatch(ctx, req.Params.Name, req.GetArguments())
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(out), nil
	}
}

func promptSchema(def domain.PromptDefinition) mcp.Prompt {
	opts := []mcp.PromptOption{mcp.WithPromptDescription(def.Description)}
	for _, a := range def.Arguments {
		argOpts := []mcp.ArgumentOption{mcp.ArgumentDescription(a.Description)}
		if a.Required {
			argOpts = append(argOpts, mcp.RequiredArgument())
		}
		opts = append(opts, mcp.WithArgument(a.Name, argOpts...))
	}
	return mcp.NewPrompt(def.Name, opts...)
}

// promptHandler expands a catalog prompt. Unknown names and missing required
// arguments are hard errors at this boundary.
func promptHandler(catalog *prompt.Catalog) mcpserver.PromptHandlerFunc {
	return func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		payload, err := catalog.Get(req.Params.Name, req.Params.Arguments)
		if err != nil {
			return nil, err
		}
		msgs := make([]mcp.PromptMessage, 0, len(payload.Messages))
		for _, m := range payload.Messages {
			msgs = append(msgs, mcp.NewPromptMessage(messageRole(m.Role), mcp.NewTextContent(m.Text)))
		}
		return mcp.NewGetPromptResult(payload.Description, msgs), nil
	}
}

func messageRole(role string) mcp.Role {
	if role == "assistant" {
		return mcp.RoleAssistant
	}
	return mcp.RoleUser
}
