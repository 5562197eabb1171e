// Package generate produces agent architectures and elaborated agent
// specifications through a configurable backend: an exec'd CLI agent, an
// OpenAI-compatible API, or the platform's own inference endpoint.
package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/atelierhq/atelier/internal/blueprint"
	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/studio"
)

// Generator turns a problem statement into an architecture proposal and
// elaborates single agents into full specifications.
type Generator interface {
	Architect(ctx context.Context, req blueprint.ArchitectureRequest) (blueprint.ArchitectureResult, error)
	Craft(ctx context.Context, req blueprint.CraftRequest) (blueprint.CraftResult, error)
}

// New constructs the generator selected by cfg.Generator.Type. workDir is
// the project root; the exec generator keeps its run logs under it.
func New(cfg config.Config, workDir string) (Generator, error) {
	switch cfg.Generator.Type {
	case config.GeneratorExec:
		return NewExecGenerator(workDir, cfg.Generator, cfg.Defaults)
	case config.GeneratorOpenAI:
		return NewOpenAIGenerator(cfg.Generator, cfg.Defaults)
	case config.GeneratorStudio:
		client, err := studio.NewClient(cfg.Studio, cfg.Defaults, nil)
		if err != nil {
			return nil, err
		}
		return NewStudioGenerator(client, cfg.Generator, cfg.Defaults)
	default:
		return nil, fmt.Errorf("unknown generator type %q", cfg.Generator.Type)
	}
}

func buildArchitectPrompt() string {
	return strings.TrimSpace(`
You are an AI systems architect for a multi-agent platform.
Given a problem statement, design the smallest agent team that solves it:
1) exactly one coordinator that routes work and merges results
2) zero or more specialists, each with one clear responsibility

Rules:
- Output ONLY valid JSON matching the provided schema.
- Do not include markdown, comments, or prose outside JSON.
- Set is_coordinator=true on exactly one entry.
- Every entry needs a concrete name, role_description, and goal.
- Never use the words worker, helper, bot, agent, or assistant in role_description.
- Prefer 1-4 specialists. Use zero specialists when one role genuinely covers the problem.
`)
}

func buildCraftPrompt(req blueprint.CraftRequest) string {
	var b strings.Builder
	b.WriteString("You are an AI agent designer. Elaborate one member of a multi-agent team into a complete specification.\n")
	if req.IsCoordinator {
		b.WriteString("This member is the coordinator: it routes work to the specialists and merges their results.\n")
		if len(req.SpecialistNames) > 0 {
			b.WriteString("Its specialists are: " + strings.Join(req.SpecialistNames, ", ") + ".\n")
		}
	} else {
		b.WriteString("This member is a specialist with one clear responsibility.\n")
	}
	b.WriteString("\nRules:\n")
	b.WriteString("- Output ONLY valid JSON matching the provided schema. No markdown, no prose outside JSON.\n")
	b.WriteString("- name: at most 100 characters.\n")
	b.WriteString("- description: at least 20 characters.\n")
	b.WriteString("- role_description: 15-80 characters; never the words worker, helper, bot, agent, or assistant.\n")
	b.WriteString("- goal: 50-300 characters.\n")
	b.WriteString("- instructions: at least 50 characters and at least 10 words; concrete and actionable.\n")
	if !req.IsCoordinator {
		b.WriteString("- usage_description: at least 20 characters describing when to delegate to this specialist.\n")
	}
	b.WriteString("- No placeholders: no [brackets], {{templates}}, TODO, FIXME, TBD, or lorem ipsum filler.\n")
	return strings.TrimSpace(b.String())
}
