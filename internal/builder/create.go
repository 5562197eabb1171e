package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/atelierhq/atelier/internal/blueprint"
)

// create assembles the hierarchical request, runs the blueprint gate, and
// creates the remote records: specialists first, then the coordinator
// wired to their ids, then the blueprint itself. Any remote failure rolls
// back every agent created so far and returns the session to craft review
// with the original error recorded.
func (b *Builder) create(ctx context.Context) error {
	b.mu.Lock()
	total := b.s.TotalAgents()
	specs := make([]blueprint.AgentSpec, len(b.s.AgentSpecs))
	for i, s := range b.s.AgentSpecs {
		specs[i] = s.Clone()
	}
	requirements := b.s.Requirements
	reasoning := ""
	if b.s.Architecture != nil {
		reasoning = b.s.Architecture.Reasoning
	}
	b.mu.Unlock()

	if len(specs) == 0 || len(specs) != total {
		return fmt.Errorf("%w: %d of %d agents crafted", ErrStage, len(specs), total)
	}

	coordinator := specs[0]
	specialists := specs[1:]
	coordinator.SubAgentFilenames = specFilenames(specialists)
	req := blueprint.BlueprintRequest{
		SessionID:   b.id,
		Coordinator: coordinator,
		Specialists: specialists,
		Pattern:     blueprint.PatternFor(len(specialists)),
	}

	if violations := blueprint.ValidateBlueprint(req); len(violations) > 0 {
		b.mu.Lock()
		b.s.Stage = StageCraftReview
		b.s.Error = violations[0]
		b.mu.Unlock()
		b.event(StageCraftReview, "blueprint_rejected", strings.Join(violations, "; "))
		return &ValidationError{Violations: violations}
	}

	b.mu.Lock()
	b.s.Stage = StageCreating
	b.s.Loading = true
	b.s.Error = ""
	b.mu.Unlock()
	b.event(StageCreating, "creating", coordinator.Name)

	result, err := b.createRemote(ctx, req)
	if err != nil {
		b.mu.Lock()
		b.s.Loading = false
		b.s.Stage = StageCraftReview
		b.s.Error = fmt.Sprintf("blueprint creation failed: %v", err)
		b.mu.Unlock()
		b.event(StageCraftReview, "create_failed", err.Error())
		return fmt.Errorf("create blueprint: %w", err)
	}

	b.mu.Lock()
	b.s.Result = &result
	b.s.Loading = false
	b.s.Stage = StageComplete
	b.s.Error = ""
	b.mu.Unlock()
	b.event(StageComplete, "complete", result.BlueprintID)

	if b.recorder != nil {
		err := b.recorder.Completed(CompletedBuild{
			SessionID:    b.id,
			Requirements: requirements,
			Reasoning:    reasoning,
			Request:      req,
			Result:       result,
		})
		if err != nil {
			log.Warn().Err(err).Str("session_id", b.id).Msg("record completed build")
		}
	}
	return nil
}

func (b *Builder) createRemote(ctx context.Context, req blueprint.BlueprintRequest) (blueprint.BuildResult, error) {
	var created []string
	rollback := func() {
		for _, id := range created {
			if err := b.platform.DeleteAgent(ctx, id); err != nil {
				log.Warn().Err(err).Str("session_id", b.id).Str("agent_id", id).Msg("rollback delete failed")
			}
		}
	}

	specialistIDs := make([]string, 0, len(req.Specialists))
	for _, spec := range req.Specialists {
		id, err := b.platform.CreateAgent(ctx, spec, nil)
		if err != nil {
			rollback()
			return blueprint.BuildResult{}, fmt.Errorf("create specialist %s: %w", spec.Name, err)
		}
		created = append(created, id)
		specialistIDs = append(specialistIDs, id)
	}

	coordinatorID, err := b.platform.CreateAgent(ctx, req.Coordinator, specialistIDs)
	if err != nil {
		rollback()
		return blueprint.BuildResult{}, fmt.Errorf("create coordinator %s: %w", req.Coordinator.Name, err)
	}
	created = append(created, coordinatorID)

	blueprintID, err := b.platform.CreateBlueprint(ctx, blueprint.RecordRequest{
		Name:          req.Coordinator.Name,
		Description:   req.Coordinator.Description,
		CoordinatorID: coordinatorID,
		SpecialistIDs: specialistIDs,
		GraphMetadata: map[string]string{
			"pattern":    string(req.Pattern),
			"session_id": req.SessionID,
		},
	})
	if err != nil {
		rollback()
		return blueprint.BuildResult{}, fmt.Errorf("create blueprint record: %w", err)
	}

	return blueprint.BuildResult{
		BlueprintID:   blueprintID,
		CoordinatorID: coordinatorID,
		SpecialistIDs: specialistIDs,
	}, nil
}

func specFilenames(specs []blueprint.AgentSpec) []string {
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Filename)
	}
	return names
}
