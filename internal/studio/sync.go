package studio

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed builder_agent.yaml
var builderAgentYAML []byte

type builderAgentDef struct {
	Kind     string `yaml:"kind"`
	Metadata struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"metadata"`
	Spec struct {
		Model        string  `yaml:"model"`
		Temperature  float64 `yaml:"temperature"`
		TopP         float64 `yaml:"top_p"`
		Role         string  `yaml:"role"`
		Goal         string  `yaml:"goal"`
		Instructions string  `yaml:"instructions"`
	} `yaml:"spec"`
}

// memoryFeatureTypes are replaced whenever the builder agent is synced.
var memoryFeatureTypes = map[string]bool{
	"memory":            true,
	"SHORT_TERM_MEMORY": true,
	"STRUCTURED_MEMORY": true,
}

// SyncBuilderAgent pushes the embedded builder-agent definition to the
// platform. With an empty agentID a new agent is created; otherwise the
// existing agent is updated in place, keeping fields the definition does
// not own. Returns the agent id to put in the generator config.
func (c *Client) SyncBuilderAgent(ctx context.Context, agentID string) (string, error) {
	def, err := parseBuilderAgent()
	if err != nil {
		return "", err
	}

	if agentID == "" {
		payload := AgentPayload{
			Name:              def.Metadata.Name,
			Description:       def.Metadata.Description,
			Model:             def.Spec.Model,
			ProviderID:        c.providerID(),
			LLMCredentialID:   c.credentialID(),
			AgentRole:         def.Spec.Role,
			AgentGoal:         def.Spec.Goal,
			AgentInstructions: def.Spec.Instructions,
			Temperature:       def.Spec.Temperature,
			TopP:              def.Spec.TopP,
			ResponseFormat:    ResponseFormat{Type: "json_object"},
			Features:          []Feature{builderMemoryFeature()},
			Tools:             []string{},
			Files:             []string{},
			ToolConfigs:       []map[string]any{},
		}
		var out createAgentResponse
		if err := c.do(ctx, "POST", "/v3/agents/", payload, &out); err != nil {
			return "", fmt.Errorf("create builder agent: %w", err)
		}
		if out.AgentID == "" {
			return "", fmt.Errorf("create builder agent: platform returned no agent_id")
		}
		return out.AgentID, nil
	}

	current, err := c.GetAgent(ctx, agentID)
	if err != nil {
		return "", fmt.Errorf("sync builder agent: %w", err)
	}

	payload := StripReadonly(current)
	payload["agent_instructions"] = def.Spec.Instructions
	payload["agent_role"] = def.Spec.Role
	payload["agent_goal"] = def.Spec.Goal
	payload["response_format"] = map[string]any{"type": "json_object"}
	payload["features"] = ensureBuilderMemory(current["features"])

	if err := c.UpdateAgent(ctx, agentID, payload); err != nil {
		return "", fmt.Errorf("sync builder agent: %w", err)
	}
	return agentID, nil
}

func parseBuilderAgent() (builderAgentDef, error) {
	var def builderAgentDef
	if err := yaml.Unmarshal(builderAgentYAML, &def); err != nil {
		return builderAgentDef{}, fmt.Errorf("parse builder agent definition: %w", err)
	}
	if def.Spec.Instructions == "" {
		return builderAgentDef{}, fmt.Errorf("builder agent definition has no instructions")
	}
	return def, nil
}

func builderMemoryFeature() Feature {
	return Feature{
		Type:     "SHORT_TERM_MEMORY",
		Config:   map[string]any{"message_count": 20},
		Priority: 0,
	}
}

// ensureBuilderMemory keeps non-memory features and replaces any memory
// configuration with short-term memory.
func ensureBuilderMemory(raw any) []any {
	var kept []any
	if list, ok := raw.([]any); ok {
		for _, item := range list {
			f, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if t, _ := f["type"].(string); memoryFeatureTypes[t] {
				continue
			}
			kept = append(kept, item)
		}
	}
	mem := builderMemoryFeature()
	kept = append(kept, map[string]any{
		"type":     mem.Type,
		"config":   mem.Config,
		"priority": mem.Priority,
	})
	return kept
}
