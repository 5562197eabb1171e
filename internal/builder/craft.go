package builder

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/atelierhq/atelier/internal/blueprint"
)

// craft generates the spec for one agent index and stores it, replacing an
// earlier spec at the same index in place. Rejected attempts are retried
// with the request unchanged, up to maxRetries extra calls; exhaustion and
// generation errors both return the session to design review.
func (b *Builder) craft(ctx context.Context, index int, feedback string) error {
	b.mu.Lock()
	arch := b.s.Architecture
	if arch == nil || index < 0 || index >= len(arch.Agents) {
		b.mu.Unlock()
		return fmt.Errorf("%w: no proposed agent at index %d", ErrStage, index)
	}
	outline := arch.Agents[index]
	specialists := arch.Specialists()
	requirements := b.s.Requirements
	reasoning := arch.Reasoning
	b.s.Stage = StageCrafting
	b.s.CurrentIndex = index
	b.s.Loading = true
	b.s.Error = ""
	b.mu.Unlock()

	purpose := fmt.Sprintf("%s. Goal: %s", outline.RoleDescription, outline.Goal)
	if feedback != "" {
		purpose += "\n\nRevision feedback: " + feedback
	}
	req := blueprint.CraftRequest{
		SessionID:     b.id,
		AgentName:     outline.Name,
		AgentPurpose:  purpose,
		IsCoordinator: index == 0,
		AgentIndex:    index,
		Context:       craftContext(requirements, reasoning),
	}
	if req.IsCoordinator {
		for _, s := range specialists {
			req.SpecialistNames = append(req.SpecialistNames, s.Name)
		}
	}

	spec, rejections, err := b.craftAttempts(ctx, req)
	if err != nil {
		b.mu.Lock()
		b.s.Loading = false
		b.s.Stage = StageDesignReview
		b.s.Error = fmt.Sprintf("crafting %s failed: %v", outline.Name, err)
		b.mu.Unlock()
		b.event(StageDesignReview, "craft_failed", err.Error())
		return fmt.Errorf("craft %s: %w", outline.Name, err)
	}
	if spec == nil {
		msg := fmt.Sprintf("agent %q failed quality checks after %d attempts: %s",
			outline.Name, b.maxRetries+1, strings.Join(rejections, "; "))
		b.mu.Lock()
		b.s.Loading = false
		b.s.Stage = StageDesignReview
		b.s.Error = msg
		b.mu.Unlock()
		b.event(StageDesignReview, "craft_exhausted", msg)
		return fmt.Errorf("%w: %s", ErrExhausted, strings.Join(rejections, "; "))
	}

	spec.Filename = blueprint.Filename(spec.Name)
	if req.IsCoordinator {
		spec.SubAgentFilenames = arch.SpecialistFilenames()
	}

	b.mu.Lock()
	if index < len(b.s.AgentSpecs) {
		b.s.AgentSpecs[index] = *spec
	} else {
		b.s.AgentSpecs = append(b.s.AgentSpecs, *spec)
	}
	b.s.CurrentIndex = index
	b.s.Loading = false
	b.s.Stage = StageCraftReview
	b.mu.Unlock()
	b.event(StageCraftReview, "crafted", spec.Name)
	return nil
}

// craftAttempts runs the generate-assess loop. It returns the accepted
// spec, or nil with the last rejection reasons once attempts run out.
func (b *Builder) craftAttempts(ctx context.Context, req blueprint.CraftRequest) (*blueprint.AgentSpec, []string, error) {
	var rejections []string
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		res, err := b.generator.Craft(ctx, req)
		if err != nil {
			return nil, nil, err
		}
		spec := res.Spec
		spec.Role = blueprint.RoleFor(req.IsCoordinator)
		spec.Index = req.AgentIndex
		if !req.IsCoordinator {
			spec.SubAgentFilenames = nil
		}
		rejections = assess(spec)
		if len(rejections) == 0 {
			return &spec, nil, nil
		}
		log.Warn().
			Str("session_id", req.SessionID).
			Str("agent", req.AgentName).
			Int("attempt", attempt+1).
			Strs("reasons", rejections).
			Msg("craft attempt rejected")
	}
	return nil, rejections, nil
}

// assess combines the content quality gate with the structural agent gate,
// deduplicating the findings the two share.
func assess(spec blueprint.AgentSpec) []string {
	reasons := blueprint.Assess(spec).Reasons
	for _, v := range blueprint.ValidateAgentSpec(spec) {
		if !slices.Contains(reasons, v) {
			reasons = append(reasons, v)
		}
	}
	return reasons
}

func craftContext(requirements, reasoning string) string {
	var sb strings.Builder
	sb.WriteString("Problem statement:\n")
	sb.WriteString(requirements)
	if reasoning != "" {
		sb.WriteString("\n\nTeam design reasoning:\n")
		sb.WriteString(reasoning)
	}
	return sb.String()
}
