package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/atelierhq/atelier/internal/blueprint"
	"github.com/atelierhq/atelier/internal/builder"
)

type stubGenerator struct {
	enter   chan struct{}
	release chan struct{}
}

func (g *stubGenerator) Architect(ctx context.Context, req blueprint.ArchitectureRequest) (blueprint.ArchitectureResult, error) {
	if g.enter != nil {
		g.enter <- struct{}{}
		<-g.release
	}
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

func (g *stubGenerator) Craft(ctx context.Context, req blueprint.CraftRequest) (blueprint.CraftResult, error) {
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

func newTestEcho(gen builder.Generator) *echo.Echo {
	hub := builder.NewHub(func(id string) *builder.Builder {
		return builder.New(builder.Config{
			SessionID:  id,
			Generator:  gen,
			Platform:   &stubPlatform{},
			MaxRetries: 2,
		})
	})
	e := echo.New()
	NewSessionsHandler(hub).Register(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, path string, body any) (*httptest.ResponseRecorder, builder.Session) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var s builder.Session
	if rec.Code < 300 && rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &s)
	}
	return rec, s
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	t.Parallel()
	e := newTestEcho(&stubGenerator{})

	rec, s := do(t, e, http.MethodPost, "/sessions", nil)
	if rec.Code != http.StatusCreated || s.ID == "" {
		t.Fatalf("create: code=%d session=%+v", rec.Code, s)
	}
	id := s.ID

	rec, s = do(t, e, http.MethodPost, "/sessions/"+id+"/submit",
		map[string]string{"statement": "I need help qualifying inbound sales leads"})
	if rec.Code != http.StatusOK || s.Stage != builder.StageDesignReview {
		t.Fatalf("submit: code=%d stage=%s body=%s", rec.Code, s.Stage, rec.Body.String())
	}
	if s.Architecture == nil || len(s.Architecture.Agents) != 3 {
		t.Fatalf("submit returned no architecture: %+v", s.Architecture)
	}

	for i := 0; i < 3; i++ {
		rec, s = do(t, e, http.MethodPost, "/sessions/"+id+"/approve", nil)
		if rec.Code != http.StatusOK || s.Stage != builder.StageCraftReview {
			t.Fatalf("approve %d: code=%d stage=%s body=%s", i, rec.Code, s.Stage, rec.Body.String())
		}
		if s.CurrentIndex != i {
			t.Fatalf("approve %d: index=%d", i, s.CurrentIndex)
		}
	}

	rec, s = do(t, e, http.MethodPost, "/sessions/"+id+"/approve", nil)
	if rec.Code != http.StatusOK || s.Stage != builder.StageComplete {
		t.Fatalf("final approve: code=%d stage=%s body=%s", rec.Code, s.Stage, rec.Body.String())
	}
	if s.Result == nil || s.Result.BlueprintID != "bp-1" {
		t.Fatalf("final approve result = %+v", s.Result)
	}

	rec, _ = do(t, e, http.MethodGet, "/sessions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: code=%d", rec.Code)
	}
	var sessions []builder.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil || len(sessions) != 1 {
		t.Fatalf("list decode: err=%v n=%d", err, len(sessions))
	}

	rec, _ = do(t, e, http.MethodDelete, "/sessions/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: code=%d", rec.Code)
	}
	rec, _ = do(t, e, http.MethodGet, "/sessions/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: code=%d", rec.Code)
	}
}

func TestSubmitEmptyStatementReturnsViolations(t *testing.T) {
	t.Parallel()
	e := newTestEcho(&stubGenerator{})

	_, s := do(t, e, http.MethodPost, "/sessions", nil)
	rec, _ := do(t, e, http.MethodPost, "/sessions/"+s.ID+"/submit", map[string]string{"statement": "   "})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("code = %d, want 422", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if len(body.Violations) == 0 {
		t.Fatalf("error body carries no violations: %+v", body)
	}
}

func TestUnknownSessionReturnsNotFound(t *testing.T) {
	t.Parallel()
	e := newTestEcho(&stubGenerator{})

	rec, _ := do(t, e, http.MethodPost, "/sessions/nope/approve", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", rec.Code)
	}
}

func TestEditDraftFlow(t *testing.T) {
	t.Parallel()
	e := newTestEcho(&stubGenerator{})

	_, s := do(t, e, http.MethodPost, "/sessions", nil)
	id := s.ID
	do(t, e, http.MethodPost, "/sessions/"+id+"/submit",
		map[string]string{"statement": "I need help qualifying inbound sales leads"})
	_, s = do(t, e, http.MethodPost, "/sessions/"+id+"/approve", nil)
	if s.Stage != builder.StageCraftReview {
		t.Fatalf("setup stage = %s", s.Stage)
	}

	rec, s := do(t, e, http.MethodPost, "/sessions/"+id+"/edit", map[string]string{"action": "begin"})
	if rec.Code != http.StatusOK || !s.EditMode || s.EditDraft == nil {
		t.Fatalf("begin edit: code=%d session=%+v", rec.Code, s)
	}

	draft := *s.EditDraft
	draft.Goal = "Too short"
	rec, _ = do(t, e, http.MethodPut, "/sessions/"+id+"/draft", draft)
	if rec.Code != http.StatusOK {
		t.Fatalf("update draft: code=%d body=%s", rec.Code, rec.Body.String())
	}

	rec, _ = do(t, e, http.MethodPost, "/sessions/"+id+"/edit", map[string]string{"action": "save"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("save invalid draft: code=%d body=%s", rec.Code, rec.Body.String())
	}
	var body ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Violations) == 0 {
		t.Fatalf("save error carries no violations: %+v", body)
	}

	rec, s = do(t, e, http.MethodDelete, "/sessions/"+id+"/draft", nil)
	if rec.Code != http.StatusOK || s.EditMode {
		t.Fatalf("cancel edit: code=%d editing=%v", rec.Code, s.EditMode)
	}
	if s.AgentSpecs[0].Goal == "Too short" {
		t.Fatal("cancelled draft leaked into the stored spec")
	}
}

func TestGoToRejectsUnknownTarget(t *testing.T) {
	t.Parallel()
	e := newTestEcho(&stubGenerator{})

	_, s := do(t, e, http.MethodPost, "/sessions", nil)
	rec, _ := do(t, e, http.MethodPost, "/sessions/"+s.ID+"/goto", map[string]string{"target": "sideways"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
}

func TestBusySessionReturnsConflict(t *testing.T) {
	t.Parallel()
	gen := &stubGenerator{enter: make(chan struct{}), release: make(chan struct{})}
	e := newTestEcho(gen)

	_, s := do(t, e, http.MethodPost, "/sessions", nil)
	id := s.ID

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		body := bytes.NewReader([]byte(`{"statement": "I need help qualifying inbound sales leads"}`))
		req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/submit", body)
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		done <- rec
	}()
	<-gen.enter

	rec, _ := do(t, e, http.MethodPost, "/sessions/"+id+"/reset", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("reset while loading: code=%d, want 409", rec.Code)
	}

	close(gen.release)
	if rec := <-done; rec.Code != http.StatusOK {
		t.Fatalf("submit: code=%d body=%s", rec.Code, rec.Body.String())
	}
}
