package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atelierhq/atelier/internal/blueprint"
	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/generate/openaiapi"
)

// OpenAIGenerator produces designs through an OpenAI-compatible responses
// API endpoint.
type OpenAIGenerator struct {
	client   *openaiapi.Client
	defaults config.AgentDefaults
}

// NewOpenAIGenerator constructs the API-backed generator.
func NewOpenAIGenerator(cfg config.GeneratorConfig, defaults config.AgentDefaults) (*OpenAIGenerator, error) {
	client, err := openaiapi.NewClient(openaiapi.Config{
		Model:     cfg.Model,
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		APIKeyEnv: cfg.APIKeyEnv,
		Timeout:   time.Duration(cfg.Timeout) * time.Second,
	}, nil)
	if err != nil {
		return nil, err
	}
	return &OpenAIGenerator{client: client, defaults: defaults}, nil
}

// Architect proposes an agent team for the given requirements.
func (g *OpenAIGenerator) Architect(ctx context.Context, req blueprint.ArchitectureRequest) (blueprint.ArchitectureResult, error) {
	input, err := json.Marshal(req)
	if err != nil {
		return blueprint.ArchitectureResult{}, fmt.Errorf("marshal request: %w", err)
	}
	out, err := g.client.Complete(ctx, openaiapi.CompletionRequest{
		Instructions: buildArchitectPrompt(),
		Input:        string(input),
	})
	if err != nil {
		return blueprint.ArchitectureResult{}, fmt.Errorf("architect call: %w", err)
	}
	proposal, err := decodeProposal([]byte(out.OutputText))
	if err != nil {
		return blueprint.ArchitectureResult{}, err
	}
	return blueprint.ArchitectureResult{SessionID: req.SessionID, Proposal: proposal}, nil
}

// Craft elaborates a single agent into a full specification.
func (g *OpenAIGenerator) Craft(ctx context.Context, req blueprint.CraftRequest) (blueprint.CraftResult, error) {
	input, err := json.Marshal(req)
	if err != nil {
		return blueprint.CraftResult{}, fmt.Errorf("marshal request: %w", err)
	}
	out, err := g.client.Complete(ctx, openaiapi.CompletionRequest{
		Instructions: buildCraftPrompt(req),
		Input:        string(input),
	})
	if err != nil {
		return blueprint.CraftResult{}, fmt.Errorf("craft call: %w", err)
	}
	spec, err := decodeSpec([]byte(out.OutputText), req, g.defaults)
	if err != nil {
		return blueprint.CraftResult{}, err
	}
	return blueprint.CraftResult{SessionID: req.SessionID, Spec: spec}, nil
}
