// Package builder orchestrates the staged construction of a multi-agent
// blueprint: requirements in, architecture review, per-agent crafting with
// a bounded quality retry loop, and finally remote creation with rollback.
package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/atelierhq/atelier/internal/blueprint"
)

var (
	// ErrBusy means another action is still running on the session.
	ErrBusy = errors.New("session is busy")
	// ErrStage means the action is not available in the current stage.
	ErrStage = errors.New("action not available in this stage")
	// ErrExhausted means generation kept failing the quality gate.
	ErrExhausted = errors.New("quality retries exhausted")
)

// ValidationError reports the gate violations that rejected an action.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// Generator produces architecture proposals and elaborated agent
// specifications.
type Generator interface {
	Architect(ctx context.Context, req blueprint.ArchitectureRequest) (blueprint.ArchitectureResult, error)
	Craft(ctx context.Context, req blueprint.CraftRequest) (blueprint.CraftResult, error)
}

// Platform creates and deletes the remote agent and blueprint records.
type Platform interface {
	CreateAgent(ctx context.Context, spec blueprint.AgentSpec, subAgentIDs []string) (string, error)
	CreateBlueprint(ctx context.Context, req blueprint.RecordRequest) (string, error)
	DeleteAgent(ctx context.Context, id string) error
}

// CompletedBuild summarizes a finished build for persistence.
type CompletedBuild struct {
	SessionID    string
	Requirements string
	Reasoning    string
	Request      blueprint.BlueprintRequest
	Result       blueprint.BuildResult
}

// Recorder persists build lifecycle events. A nil Recorder disables
// persistence.
type Recorder interface {
	Event(sessionID string, stage Stage, event, detail string) error
	Completed(build CompletedBuild) error
}

// Config wires a Builder's collaborators. MaxSpecialists is the team size
// above which the architecture gate warns; zero disables the warning.
type Config struct {
	SessionID      string
	Generator      Generator
	Platform       Platform
	Recorder       Recorder
	MaxRetries     int
	MaxSpecialists int
}

// Builder drives one session through the build flow. Every action runs to
// completion while it holds the action lock; a second action arriving in
// the meantime fails with ErrBusy instead of queueing.
type Builder struct {
	opMu sync.Mutex
	mu   sync.Mutex

	id             string
	s              Session
	generator      Generator
	platform       Platform
	recorder       Recorder
	maxRetries     int
	maxSpecialists int
}

// New constructs a Builder for a fresh session.
func New(cfg Config) *Builder {
	id := cfg.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	specialists := cfg.MaxSpecialists
	if specialists < 0 {
		specialists = 0
	}
	return &Builder{
		id:             id,
		s:              Session{ID: id, Stage: StageDefine},
		generator:      cfg.Generator,
		platform:       cfg.Platform,
		recorder:       cfg.Recorder,
		maxRetries:     retries,
		maxSpecialists: specialists,
	}
}

// ID returns the session id.
func (b *Builder) ID() string { return b.id }

// Snapshot returns a deep copy of the session for rendering. It never
// blocks on a running action.
func (b *Builder) Snapshot() Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.s.Clone()
}

// Submit accepts the problem statement and requests an architecture
// proposal. Submitting the identical statement again when a proposal
// already exists returns to design review without regenerating; a changed
// statement discards all downstream state first.
func (b *Builder) Submit(ctx context.Context, statement string) error {
	if !b.opMu.TryLock() {
		return ErrBusy
	}
	defer b.opMu.Unlock()

	statement = strings.TrimSpace(statement)
	if statement == "" {
		return &ValidationError{Violations: []string{"problem statement must not be empty"}}
	}

	b.mu.Lock()
	if b.s.Stage != StageDefine {
		stage := b.s.Stage
		b.mu.Unlock()
		return fmt.Errorf("%w: submit requires define, session is in %s", ErrStage, stage)
	}
	if statement == b.s.Requirements && b.s.Architecture != nil {
		b.s.Stage = StageDesignReview
		b.s.Error = ""
		b.mu.Unlock()
		return nil
	}
	b.s = Session{ID: b.id, Stage: StageDefine, Requirements: statement}
	b.mu.Unlock()

	b.event(StageDefine, "submit", statement)
	return b.architect(ctx)
}

// architect runs the designing stage for the session's current
// requirements. Failure records the error and returns the session to
// define; the gate's findings are warnings only.
func (b *Builder) architect(ctx context.Context) error {
	b.mu.Lock()
	requirements := b.s.Requirements
	b.s.Stage = StageDesigning
	b.s.Loading = true
	b.s.Error = ""
	b.mu.Unlock()

	res, err := b.generator.Architect(ctx, blueprint.ArchitectureRequest{
		Requirements: requirements,
		SessionID:    b.id,
	})
	if err != nil {
		b.mu.Lock()
		b.s.Loading = false
		b.s.Stage = StageDefine
		b.s.Error = fmt.Sprintf("architecture generation failed: %v", err)
		b.mu.Unlock()
		b.event(StageDefine, "architect_failed", err.Error())
		return fmt.Errorf("architecture generation: %w", err)
	}

	warnings := blueprint.ValidateArchitecture(res.Proposal)
	if n := len(res.Proposal.Specialists()); b.maxSpecialists > 0 && n > b.maxSpecialists {
		warnings = append(warnings, fmt.Sprintf("proposal has %d specialists, above the limit of %d", n, b.maxSpecialists))
	}
	for _, w := range warnings {
		log.Warn().Str("session_id", b.id).Str("finding", w).Msg("architecture gate")
	}

	proposal := res.Proposal
	b.mu.Lock()
	b.s.Architecture = &proposal
	b.s.Warnings = warnings
	b.s.Loading = false
	b.s.Stage = StageDesignReview
	b.mu.Unlock()
	b.event(StageDesignReview, "proposed", proposal.Reasoning)
	return nil
}

// Approve advances the session: design review moves into crafting agent 0,
// craft review moves to the next agent or, after the last one, into
// creation. Approving an agent already followed by crafted specs only moves
// the review cursor.
func (b *Builder) Approve(ctx context.Context) error {
	if !b.opMu.TryLock() {
		return ErrBusy
	}
	defer b.opMu.Unlock()

	b.mu.Lock()
	if b.s.EditMode {
		b.mu.Unlock()
		return fmt.Errorf("%w: save or cancel the edit first", ErrStage)
	}
	switch b.s.Stage {
	case StageDesignReview:
		if b.s.Architecture == nil {
			b.mu.Unlock()
			return fmt.Errorf("%w: no architecture to approve", ErrStage)
		}
		if b.s.TotalAgents() == 0 {
			b.mu.Unlock()
			return &ValidationError{Violations: []string{"architecture has no agents; revise the design first"}}
		}
		if len(b.s.AgentSpecs) > 0 {
			b.s.Stage = StageCraftReview
			b.s.CurrentIndex = 0
			b.s.Error = ""
			b.mu.Unlock()
			return nil
		}
		b.mu.Unlock()
		return b.craft(ctx, 0, "")
	case StageCraftReview:
		next := b.s.CurrentIndex + 1
		total := b.s.TotalAgents()
		if next < len(b.s.AgentSpecs) {
			approved := b.s.AgentSpecs[b.s.CurrentIndex].Name
			b.s.CurrentIndex = next
			b.s.Error = ""
			b.mu.Unlock()
			b.event(StageCraftReview, "approved", approved)
			return nil
		}
		b.mu.Unlock()
		if next < total {
			return b.craft(ctx, next, "")
		}
		return b.create(ctx)
	default:
		stage := b.s.Stage
		b.mu.Unlock()
		return fmt.Errorf("%w: approve not available in %s", ErrStage, stage)
	}
}

// Revise sends the session one step back with feedback: from design review
// it regenerates the architecture with the feedback appended to the
// requirements and discards all crafted agents, from craft review it
// re-crafts the current agent with the feedback appended to its purpose.
func (b *Builder) Revise(ctx context.Context, feedback string) error {
	if !b.opMu.TryLock() {
		return ErrBusy
	}
	defer b.opMu.Unlock()

	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return &ValidationError{Violations: []string{"revision feedback must not be empty"}}
	}

	b.mu.Lock()
	if b.s.EditMode {
		b.mu.Unlock()
		return fmt.Errorf("%w: save or cancel the edit first", ErrStage)
	}
	switch b.s.Stage {
	case StageDesignReview:
		b.s.Requirements = b.s.Requirements + "\n\nRevision feedback: " + feedback
		b.s.AgentSpecs = nil
		b.s.CurrentIndex = 0
		b.s.Result = nil
		b.mu.Unlock()
		b.event(StageDesigning, "revise_design", feedback)
		return b.architect(ctx)
	case StageCraftReview:
		index := b.s.CurrentIndex
		b.mu.Unlock()
		b.event(StageCrafting, "revise_agent", feedback)
		return b.craft(ctx, index, feedback)
	default:
		stage := b.s.Stage
		b.mu.Unlock()
		return fmt.Errorf("%w: revise not available in %s", ErrStage, stage)
	}
}

// Reset discards the session and starts over from define.
func (b *Builder) Reset() error {
	if !b.opMu.TryLock() {
		return ErrBusy
	}
	defer b.opMu.Unlock()

	b.mu.Lock()
	b.s = Session{ID: b.id, Stage: StageDefine}
	b.mu.Unlock()
	b.event(StageDefine, "reset", "")
	return nil
}

func (b *Builder) event(stage Stage, name, detail string) {
	if b.recorder == nil {
		return
	}
	if err := b.recorder.Event(b.id, stage, name, detail); err != nil {
		log.Warn().Err(err).Str("session_id", b.id).Str("event", name).Msg("record event")
	}
}
