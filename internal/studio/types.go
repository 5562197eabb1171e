package studio

import "time"

const (
	defaultBaseURL   = "https://agent-prod.studio.lyzr.ai"
	defaultAPIKeyEnv = "LYZR_API_KEY"
	defaultTimeout   = 30 * time.Second

	defaultModel        = "groq/llama-3.3-70b-versatile"
	defaultProviderID   = "Groq"
	defaultCredentialID = "lyzr_groq"
	defaultTopP         = 0.9
)

// AgentPayload is the platform representation of one agent. The yaml tags
// mirror the json names so exported files match the wire shape.
type AgentPayload struct {
	Name              string            `json:"name" yaml:"name"`
	Description       string            `json:"description" yaml:"description"`
	Model             string            `json:"model" yaml:"model"`
	ProviderID        string            `json:"provider_id,omitempty" yaml:"provider_id,omitempty"`
	LLMCredentialID   string            `json:"llm_credential_id,omitempty" yaml:"llm_credential_id,omitempty"`
	AgentRole         string            `json:"agent_role" yaml:"agent_role"`
	AgentGoal         string            `json:"agent_goal" yaml:"agent_goal"`
	AgentInstructions string            `json:"agent_instructions" yaml:"agent_instructions"`
	Temperature       float64           `json:"temperature" yaml:"temperature"`
	TopP              float64           `json:"top_p" yaml:"top_p"`
	ResponseFormat    ResponseFormat    `json:"response_format" yaml:"response_format"`
	Features          []Feature         `json:"features" yaml:"features"`
	Tools             []string          `json:"tools" yaml:"tools"`
	Files             []string          `json:"files" yaml:"files"`
	ToolConfigs       []map[string]any  `json:"tool_configs" yaml:"tool_configs"`
	ManagedAgents     []ManagedAgent    `json:"managed_agents,omitempty" yaml:"managed_agents,omitempty"`
	GraphMetadata     map[string]string `json:"graph_metadata,omitempty" yaml:"graph_metadata,omitempty"`
}

// ResponseFormat selects the agent's output mode.
type ResponseFormat struct {
	Type string `json:"type" yaml:"type"` // "text" or "json_object"
}

// Feature is one platform feature attached to an agent.
type Feature struct {
	Type     string         `json:"type" yaml:"type"`
	Config   map[string]any `json:"config" yaml:"config"`
	Priority int            `json:"priority" yaml:"priority"`
}

// ManagedAgent references a sub-agent by platform id.
type ManagedAgent struct {
	ID               string `json:"id" yaml:"id"`
	Name             string `json:"name,omitempty" yaml:"name,omitempty"`
	UsageDescription string `json:"usage_description,omitempty" yaml:"usage_description,omitempty"`
}

// InferenceRequest is one chat turn against a deployed agent.
type InferenceRequest struct {
	UserID    string `json:"user_id"`
	AgentID   string `json:"agent_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type createAgentResponse struct {
	AgentID string `json:"agent_id"`
}

type inferenceResponse struct {
	Response string `json:"response"`
}

// readonlyFields are returned by the platform but rejected on update.
var readonlyFields = []string{"_id", "created_at", "updated_at", "api_key", "version"}

// StripReadonly removes the platform-managed fields from a fetched agent
// record so it can be sent back on update.
func StripReadonly(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		out[k] = v
	}
	for _, f := range readonlyFields {
		delete(out, f)
	}
	return out
}
