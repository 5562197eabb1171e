package generate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/atelierhq/atelier/internal/blueprint"
	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/studio"
)

const studioUserID = "atelier"

// StudioGenerator produces designs by chatting with the platform-side
// builder agent. The agent is deployed by the builder-agent sync; its
// instructions define the architect and craft tasks keyed by the "task"
// field of each message.
type StudioGenerator struct {
	client   *studio.Client
	agentID  string
	defaults config.AgentDefaults
}

// NewStudioGenerator constructs the platform-backed generator.
func NewStudioGenerator(client *studio.Client, cfg config.GeneratorConfig, defaults config.AgentDefaults) (*StudioGenerator, error) {
	if cfg.AgentID == "" {
		return nil, fmt.Errorf("studio generator requires agent_id (run the builder-agent sync first)")
	}
	return &StudioGenerator{client: client, agentID: cfg.AgentID, defaults: defaults}, nil
}

// Architect proposes an agent team for the given requirements.
func (g *StudioGenerator) Architect(ctx context.Context, req blueprint.ArchitectureRequest) (blueprint.ArchitectureResult, error) {
	msg, err := taskMessage("architect", req)
	if err != nil {
		return blueprint.ArchitectureResult{}, err
	}
	text, err := g.client.Chat(ctx, studio.InferenceRequest{
		UserID:    studioUserID,
		AgentID:   g.agentID,
		SessionID: req.SessionID,
		Message:   msg,
	})
	if err != nil {
		return blueprint.ArchitectureResult{}, fmt.Errorf("architect call: %w", err)
	}
	proposal, err := decodeProposal([]byte(text))
	if err != nil {
		return blueprint.ArchitectureResult{}, err
	}
	return blueprint.ArchitectureResult{SessionID: req.SessionID, Proposal: proposal}, nil
}

// Craft elaborates a single agent into a full specification.
func (g *StudioGenerator) Craft(ctx context.Context, req blueprint.CraftRequest) (blueprint.CraftResult, error) {
	msg, err := taskMessage("craft", req)
	if err != nil {
		return blueprint.CraftResult{}, err
	}
	text, err := g.client.Chat(ctx, studio.InferenceRequest{
		UserID:    studioUserID,
		AgentID:   g.agentID,
		SessionID: req.SessionID,
		Message:   msg,
	})
	if err != nil {
		return blueprint.CraftResult{}, fmt.Errorf("craft call: %w", err)
	}
	spec, err := decodeSpec([]byte(text), req, g.defaults)
	if err != nil {
		return blueprint.CraftResult{}, err
	}
	return blueprint.CraftResult{SessionID: req.SessionID, Spec: spec}, nil
}

// taskMessage wraps a request in the task envelope the builder agent's
// instructions key on.
func taskMessage(task string, req any) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("build task message: %w", err)
	}
	doc["task"] = task
	out, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal task message: %w", err)
	}
	return string(out), nil
}
