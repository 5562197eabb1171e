package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/atelierhq/atelier/internal/blueprint"
	"github.com/atelierhq/atelier/internal/builder"
)

type stubGenerator struct{}

func (stubGenerator) Architect(ctx context.Context, req blueprint.ArchitectureRequest) (blueprint.ArchitectureResult, error) {
	return blueprint.ArchitectureResult{
		SessionID: req.SessionID,
		Proposal: blueprint.ArchitectureProposal{
			Reasoning: "Research and scoring are distinct skills, so each gets a dedicated specialist.",
			Agents: []blueprint.AgentOutline{
				{Name: "Lead Intake Coordinator", RoleDescription: "Routes each lead through research and scoring", Goal: "Get every inbound lead researched, scored, and summarized for the sales team without manual triage."},
				{Name: "Company Researcher", RoleDescription: "Researches the lead's company background", Goal: "Collect company size, industry, and funding context for every inbound lead before scoring happens."},
				{Name: "Deal Scorer", RoleDescription: "Scores researched leads for fit", Goal: "Score each researched lead against the qualification rubric so only promising prospects reach sales."},
			},
		},
	}, nil
}

func (stubGenerator) Craft(ctx context.Context, req blueprint.CraftRequest) (blueprint.CraftResult, error) {
	return blueprint.CraftResult{
		SessionID: req.SessionID,
		Spec: blueprint.AgentSpec{
			Name:             req.AgentName,
			Description:      "Handles one focused part of the lead qualification workflow.",
			ModelID:          "groq/llama-3.3-70b-versatile",
			Temperature:      0.7,
			RoleDescription:  "Runs one focused lead qualification duty",
			Goal:             "Move every inbound sales lead through qualification quickly so the sales team only talks to promising prospects.",
			Instructions:     "Work through each assigned lead step by step, apply the qualification criteria consistently, and report findings in a short structured summary.",
			UsageDescription: "Use when a lead needs this stage of qualification handled.",
		},
	}, nil
}

type stubPlatform struct {
	mu      sync.Mutex
	created int
}

func (p *stubPlatform) CreateAgent(ctx context.Context, spec blueprint.AgentSpec, subAgentIDs []string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created++
	return fmt.Sprintf("agent-%d", p.created), nil
}

func (p *stubPlatform) CreateBlueprint(ctx context.Context, req blueprint.RecordRequest) (string, error) {
	return "bp-1", nil
}

func (p *stubPlatform) DeleteAgent(ctx context.Context, id string) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	hub := builder.NewHub(func(id string) *builder.Builder {
		return builder.New(builder.Config{
			SessionID:  id,
			Generator:  stubGenerator{},
			Platform:   &stubPlatform{},
			MaxRetries: 2,
		})
	})
	s, err := NewServer(hub, "test")
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func decodeSnapshot(t *testing.T, res *mcpsdk.CallToolResult) builder.Session {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("empty tool result: %+v", res)
	}
	text, ok := res.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	var s builder.Session
	if err := json.Unmarshal([]byte(text.Text), &s); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return s
}

func TestNewServerValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		hub     *builder.Hub
		wantErr bool
	}{
		{name: "nil hub", hub: nil, wantErr: true},
		{name: "valid", hub: builder.NewHub(nil), wantErr: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewServer(tt.hub, "")
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSubmitCreatesSession(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ctx := context.Background()

	res, _, err := s.handleSubmit(ctx, nil, &SubmitParams{Statement: "I need help qualifying inbound sales leads"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	snap := decodeSnapshot(t, res)
	if snap.ID == "" || snap.Stage != builder.StageDesignReview {
		t.Fatalf("unexpected snapshot: id=%q stage=%s", snap.ID, snap.Stage)
	}
	if snap.Architecture == nil || len(snap.Architecture.Agents) != 3 {
		t.Fatalf("expected 3 proposed agents, got %+v", snap.Architecture)
	}

	res, _, err = s.handleStatus(ctx, nil, &SessionParams{SessionID: snap.ID})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got := decodeSnapshot(t, res); got.ID != snap.ID {
		t.Fatalf("status returned session %q, want %q", got.ID, snap.ID)
	}
}

func TestApproveThroughCompletion(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ctx := context.Background()

	res, _, err := s.handleSubmit(ctx, nil, &SubmitParams{Statement: "I need help qualifying inbound sales leads"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	id := decodeSnapshot(t, res).ID

	var snap builder.Session
	for i := 0; i < 3; i++ {
		res, _, err = s.handleApprove(ctx, nil, &SessionParams{SessionID: id})
		if err != nil {
			t.Fatalf("approve %d: %v", i, err)
		}
		snap = decodeSnapshot(t, res)
		if snap.Stage != builder.StageCraftReview {
			t.Fatalf("approve %d: stage=%s", i, snap.Stage)
		}
	}
	res, _, err = s.handleApprove(ctx, nil, &SessionParams{SessionID: id})
	if err != nil {
		t.Fatalf("final approve: %v", err)
	}
	snap = decodeSnapshot(t, res)
	if snap.Stage != builder.StageComplete || snap.Result == nil || snap.Result.BlueprintID != "bp-1" {
		t.Fatalf("unexpected final snapshot: stage=%s result=%+v", snap.Stage, snap.Result)
	}
}

func TestReviseRegeneratesDesign(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ctx := context.Background()

	res, _, err := s.handleSubmit(ctx, nil, &SubmitParams{Statement: "I need help qualifying inbound sales leads"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	id := decodeSnapshot(t, res).ID

	res, _, err = s.handleRevise(ctx, nil, &ReviseParams{SessionID: id, Feedback: "Split research into company and contact research"})
	if err != nil {
		t.Fatalf("revise: %v", err)
	}
	if snap := decodeSnapshot(t, res); snap.Stage != builder.StageDesignReview {
		t.Fatalf("stage after revise = %s", snap.Stage)
	}
}

func TestGoToAndReset(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ctx := context.Background()

	res, _, err := s.handleSubmit(ctx, nil, &SubmitParams{Statement: "I need help qualifying inbound sales leads"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	id := decodeSnapshot(t, res).ID

	if _, _, err := s.handleApprove(ctx, nil, &SessionParams{SessionID: id}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	res, _, err = s.handleGoTo(ctx, nil, &GoToParams{SessionID: id, Target: "design"})
	if err != nil {
		t.Fatalf("goto design: %v", err)
	}
	if snap := decodeSnapshot(t, res); snap.Stage != builder.StageDesignReview {
		t.Fatalf("stage after goto design = %s", snap.Stage)
	}

	if _, _, err := s.handleGoTo(ctx, nil, &GoToParams{SessionID: id, Target: "sideways"}); err == nil || !strings.Contains(err.Error(), "target must be") {
		t.Fatalf("expected target error, got %v", err)
	}

	res, _, err = s.handleReset(ctx, nil, &SessionParams{SessionID: id})
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	snap := decodeSnapshot(t, res)
	if snap.Stage != builder.StageDefine || snap.Architecture != nil {
		t.Fatalf("unexpected snapshot after reset: %+v", snap)
	}
}

func TestUnknownSession(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ctx := context.Background()

	if _, _, err := s.handleStatus(ctx, nil, &SessionParams{SessionID: "missing"}); !errors.Is(err, builder.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := s.handleStatus(ctx, nil, &SessionParams{}); err == nil || !strings.Contains(err.Error(), "session_id is required") {
		t.Fatalf("expected session_id error, got %v", err)
	}
}
