// Package mcp exposes build sessions as Model Context Protocol tools over
// stdio, so editor agents can drive the staged blueprint flow.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/atelierhq/atelier/internal/builder"
)

// Server wraps the MCP SDK server around a session hub.
type Server struct {
	mcp *mcpsdk.Server
	hub *builder.Hub
}

// NewServer creates the MCP server and registers the blueprint tools.
func NewServer(hub *builder.Hub, version string) (*Server, error) {
	if hub == nil {
		return nil, fmt.Errorf("session hub is required")
	}
	if version == "" {
		version = "dev"
	}
	s := &Server{
		mcp: mcpsdk.NewServer(&mcpsdk.Implementation{Name: "atelier", Version: version}, nil),
		hub: hub,
	}
	s.registerTools()
	return s, nil
}

// Run serves the stdio transport until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.mcp.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "blueprint_submit",
		Description: "Submit a problem statement to start designing a multi-agent blueprint. Creates a new session when session_id is omitted. Returns the session with the proposed architecture for review.",
	}, s.handleSubmit)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "blueprint_status",
		Description: "Return the current state of a build session: stage, proposed architecture, crafted agent specs, warnings, and the last error.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "blueprint_approve",
		Description: "Approve the artifact under review. At design review this starts crafting the first agent; at craft review it advances to the next agent or, after the last one, creates the blueprint remotely.",
	}, s.handleApprove)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "blueprint_revise",
		Description: "Reject the artifact under review with feedback. At design review the architecture is regenerated; at craft review the current agent is re-crafted with the feedback applied.",
	}, s.handleRevise)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "blueprint_goto",
		Description: "Navigate the session without discarding progress: back to the design, to an already-crafted agent by index, or forward to the completed result.",
	}, s.handleGoTo)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "blueprint_reset",
		Description: "Reset the session to a fresh problem statement, discarding the proposal and all crafted agents.",
	}, s.handleReset)
}

// SubmitParams are the arguments of blueprint_submit.
type SubmitParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"Existing session id; a new session is created when omitted"`
	Statement string `json:"statement" jsonschema:"The problem statement to build a blueprint for"`
}

// SessionParams address one existing session.
type SessionParams struct {
	SessionID string `json:"session_id" jsonschema:"Session id returned by blueprint_submit"`
}

// ReviseParams are the arguments of blueprint_revise.
type ReviseParams struct {
	SessionID string `json:"session_id" jsonschema:"Session id returned by blueprint_submit"`
	Feedback  string `json:"feedback" jsonschema:"What should change in the rejected artifact"`
}

// GoToParams are the arguments of blueprint_goto.
type GoToParams struct {
	SessionID string `json:"session_id" jsonschema:"Session id returned by blueprint_submit"`
	Target    string `json:"target" jsonschema:"Navigation target: design, agent, or complete"`
	Index     int    `json:"index,omitempty" jsonschema:"Agent index when target is agent"`
}

func (s *Server) handleSubmit(ctx context.Context, req *mcpsdk.CallToolRequest, params *SubmitParams) (*mcpsdk.CallToolResult, any, error) {
	var b *builder.Builder
	if strings.TrimSpace(params.SessionID) == "" {
		b = s.hub.Create()
	} else {
		var err error
		b, err = s.hub.Get(params.SessionID)
		if err != nil {
			return nil, nil, err
		}
	}
	if err := b.Submit(ctx, params.Statement); err != nil {
		return nil, nil, err
	}
	return snapshotResult(b)
}

func (s *Server) handleStatus(ctx context.Context, req *mcpsdk.CallToolRequest, params *SessionParams) (*mcpsdk.CallToolResult, any, error) {
	b, err := s.session(params.SessionID)
	if err != nil {
		return nil, nil, err
	}
	return snapshotResult(b)
}

func (s *Server) handleApprove(ctx context.Context, req *mcpsdk.CallToolRequest, params *SessionParams) (*mcpsdk.CallToolResult, any, error) {
	b, err := s.session(params.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if err := b.Approve(ctx); err != nil {
		return nil, nil, err
	}
	return snapshotResult(b)
}

func (s *Server) handleRevise(ctx context.Context, req *mcpsdk.CallToolRequest, params *ReviseParams) (*mcpsdk.CallToolResult, any, error) {
	b, err := s.session(params.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if err := b.Revise(ctx, params.Feedback); err != nil {
		return nil, nil, err
	}
	return snapshotResult(b)
}

func (s *Server) handleGoTo(ctx context.Context, req *mcpsdk.CallToolRequest, params *GoToParams) (*mcpsdk.CallToolResult, any, error) {
	b, err := s.session(params.SessionID)
	if err != nil {
		return nil, nil, err
	}
	switch strings.TrimSpace(params.Target) {
	case "design":
		err = b.GoToDesign()
	case "agent":
		err = b.GoToAgent(params.Index)
	case "complete":
		err = b.GoToComplete()
	default:
		return nil, nil, fmt.Errorf("target must be design, agent, or complete")
	}
	if err != nil {
		return nil, nil, err
	}
	return snapshotResult(b)
}

func (s *Server) handleReset(ctx context.Context, req *mcpsdk.CallToolRequest, params *SessionParams) (*mcpsdk.CallToolResult, any, error) {
	b, err := s.session(params.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if err := b.Reset(); err != nil {
		return nil, nil, err
	}
	return snapshotResult(b)
}

func (s *Server) session(id string) (*builder.Builder, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	return s.hub.Get(id)
}

func snapshotResult(b *builder.Builder) (*mcpsdk.CallToolResult, any, error) {
	snap := b.Snapshot()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshal session: %w", err)
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil, nil
}
