// Package mcp exposes the task bridge as a Model Context Protocol server over
// stdio. Every tool answers with one text block holding a JSON envelope.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kutbudev/ofocus-cli/internal/api"
	"github.com/kutbudev/ofocus-cli/internal/envelope"
)

const instructions = `ofocus bridges to the OmniFocus task manager on this Mac.

## Reading
- todays_agenda: overdue, due-soon and flagged tasks in one call. Start here.
- list_tasks: filter by completion, flags, project, tags, dates. Dates accept
  "YYYY-MM-DD", "YYYY-MM-DD HH:mm", "today", "tomorrow", "+3d", "next friday".
- list_projects / list_tags / list_folders for structure.

## Writing
- create_task without project or parent_task_id lands in the inbox.
- update_task only changes the fields you pass; pass "" to clear a date.
- complete_task on a repeating task creates the next occurrence.
- delete_task is permanent; prefer drop_task for things that will not be done.

## Responses
Every tool returns {success, data | error, metadata}. On failure read
error.code and error.suggestion before retrying.`

// Server wraps the MCP server and the client its handlers use.
type Server struct {
	client *api.Client
	logger *slog.Logger
	srv    *mcp.Server
	tools  []*mcp.Tool
}

// NewServer builds a server with every tool, resource and prompt registered.
func NewServer(client *api.Client, version string, logger *slog.Logger) (*Server, error) {
	if client == nil {
		return nil, errors.New("api client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{client: client, logger: logger}
	s.srv = mcp.NewServer(
		&mcp.Implementation{Name: "ofocus", Version: version},
		&mcp.ServerOptions{
			CompletionHandler: s.completionHandler,
			Instructions:      instructions,
		},
	)
	s.registerTools()
	s.registerResources()
	s.registerPrompts()
	return s, nil
}

// Run serves over stdio until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.srv.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session on t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.srv.Connect(ctx, t, nil)
}

// Tools lists the registered tools in registration order.
func (s *Server) Tools() []*mcp.Tool {
	return s.tools
}

// handler is the shape of every tool body: it gets a timer started at request
// receipt and returns a complete envelope.
type handler[In any] func(ctx context.Context, t *envelope.Timer, in In) envelope.Envelope

func addTool[In any](s *Server, tool *mcp.Tool, h handler[In]) {
	s.tools = append(s.tools, tool)
	mcp.AddTool(s.srv, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		timer := envelope.Start(tool.Name)
		env := h(ctx, timer, in)
		if !env.Success && env.Error != nil {
			s.logger.Warn("tool failed", "tool", tool.Name, "code", env.Error.Code, "error", env.Error.Message)
		} else {
			s.logger.Debug("tool succeeded", "tool", tool.Name, "request", timer.RequestID())
		}
		return textResult(env), nil, nil
	})
}

// textResult renders an envelope as the single text content of a tool result.
func textResult(env envelope.Envelope) *mcp.CallToolResult {
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		b = []byte(fmt.Sprintf(`{"success":false,"error":{"code":%q,"message":%q},"metadata":{}}`,
			envelope.CodeInternal, "failed to marshal response: "+err.Error()))
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(b)}}, IsError: true}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
		IsError: !env.Success,
	}
}

func boolPtr(b bool) *bool {
	return &b
}

// listMeta turns list provenance into envelope metadata.
func listMeta(count int, m api.Meta, extra map[string]any) map[string]any {
	md := map[string]any{
		"count":      count,
		"from_cache": m.FromCache,
	}
	if m.Scanned > 0 {
		md["scanned"] = m.Scanned
	}
	if m.Dropped > 0 {
		md["dropped"] = m.Dropped
	}
	for k, v := range extra {
		md[k] = v
	}
	return md
}
