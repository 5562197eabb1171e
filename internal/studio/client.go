// Package studio is the client for the agent platform's REST API: agent
// create/update/delete, the inference endpoint, and the builder-agent sync.
package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/atelierhq/atelier/internal/blueprint"
	"github.com/atelierhq/atelier/internal/config"
)

// ErrNotFound is returned when the platform reports an unknown agent id.
var ErrNotFound = errors.New("agent not found")

// Client talks to the agent platform.
type Client struct {
	baseURL  string
	apiKey   string
	defaults config.AgentDefaults
	http     *http.Client
}

// NewClient constructs a platform client. The API key is taken from
// cfg.APIKey, or from the environment variable named by cfg.APIKeyEnv.
func NewClient(cfg config.StudioConfig, defaults config.AgentDefaults, httpClient *http.Client) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		envKey := strings.TrimSpace(cfg.APIKeyEnv)
		if envKey == "" {
			envKey = defaultAPIKeyEnv
		}
		apiKey = strings.TrimSpace(os.Getenv(envKey))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("studio api key is required (set api_key or api_key_env)")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if httpClient == nil {
		timeout := defaultTimeout
		if cfg.Timeout > 0 {
			timeout = time.Duration(cfg.Timeout) * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		defaults: defaults,
		http:     httpClient,
	}, nil
}

// CreateAgent deploys one agent spec and returns the platform id. For a
// coordinator, subAgentIDs carries the already-created specialists in the
// order of spec.SubAgentFilenames.
func (c *Client) CreateAgent(ctx context.Context, spec blueprint.AgentSpec, subAgentIDs []string) (string, error) {
	payload := c.payloadFromSpec(spec, subAgentIDs)
	var out createAgentResponse
	if err := c.do(ctx, http.MethodPost, "/v3/agents/", payload, &out); err != nil {
		return "", fmt.Errorf("create agent %q: %w", spec.Name, err)
	}
	if out.AgentID == "" {
		return "", fmt.Errorf("create agent %q: platform returned no agent_id", spec.Name)
	}
	return out.AgentID, nil
}

// CreateBlueprint records the assembled hierarchy as a platform entity
// referencing the coordinator and every specialist.
func (c *Client) CreateBlueprint(ctx context.Context, req blueprint.RecordRequest) (string, error) {
	managed := make([]ManagedAgent, 0, len(req.SpecialistIDs)+1)
	managed = append(managed, ManagedAgent{ID: req.CoordinatorID})
	for _, id := range req.SpecialistIDs {
		managed = append(managed, ManagedAgent{ID: id})
	}
	payload := AgentPayload{
		Name:              req.Name,
		Description:       req.Description,
		Model:             c.defaultModel(),
		ProviderID:        c.providerID(),
		LLMCredentialID:   c.credentialID(),
		AgentRole:         "Blueprint",
		AgentGoal:         req.Description,
		AgentInstructions: "Blueprint record. Delegate all work to the coordinator agent.",
		Temperature:       0,
		TopP:              defaultTopP,
		ResponseFormat:    ResponseFormat{Type: "text"},
		Features:          []Feature{},
		Tools:             []string{},
		Files:             []string{},
		ToolConfigs:       []map[string]any{},
		ManagedAgents:     managed,
		GraphMetadata:     req.GraphMetadata,
	}
	var out createAgentResponse
	if err := c.do(ctx, http.MethodPost, "/v3/agents/", payload, &out); err != nil {
		return "", fmt.Errorf("create blueprint %q: %w", req.Name, err)
	}
	if out.AgentID == "" {
		return "", fmt.Errorf("create blueprint %q: platform returned no agent_id", req.Name)
	}
	return out.AgentID, nil
}

// DeleteAgent removes an agent by id.
func (c *Client) DeleteAgent(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/v3/agents/"+id, nil, nil); err != nil {
		return fmt.Errorf("delete agent %s: %w", id, err)
	}
	return nil
}

// GetAgent fetches the raw platform record for an agent.
func (c *Client) GetAgent(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/v3/agents/"+id, nil, &out); err != nil {
		return nil, fmt.Errorf("get agent %s: %w", id, err)
	}
	return out, nil
}

// UpdateAgent replaces an agent's configuration. The payload must not
// contain readonly fields; use StripReadonly on fetched records.
func (c *Client) UpdateAgent(ctx context.Context, id string, payload map[string]any) error {
	if err := c.do(ctx, http.MethodPut, "/v3/agents/"+id, payload, nil); err != nil {
		return fmt.Errorf("update agent %s: %w", id, err)
	}
	return nil
}

// Chat runs one inference turn against a deployed agent and returns the
// response text.
func (c *Client) Chat(ctx context.Context, req InferenceRequest) (string, error) {
	var out inferenceResponse
	if err := c.do(ctx, http.MethodPost, "/v3/inference/chat/", req, &out); err != nil {
		return "", fmt.Errorf("inference chat: %w", err)
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", fmt.Errorf("inference chat: platform returned empty response")
	}
	return out.Response, nil
}

func (c *Client) payloadFromSpec(spec blueprint.AgentSpec, subAgentIDs []string) AgentPayload {
	return PayloadFromSpec(spec, subAgentIDs, c.defaults)
}

// PayloadFromSpec maps an agent spec onto the platform agent shape. For a
// coordinator, subAgentIDs carries the specialist platform ids in the order
// of spec.SubAgentFilenames.
func PayloadFromSpec(spec blueprint.AgentSpec, subAgentIDs []string, defaults config.AgentDefaults) AgentPayload {
	model := spec.ModelID
	if model == "" {
		model = defaults.ModelID
	}
	if model == "" {
		model = defaultModel
	}
	providerID := defaults.ProviderID
	if providerID == "" {
		providerID = defaultProviderID
	}
	credentialID := defaults.CredentialID
	if credentialID == "" {
		credentialID = defaultCredentialID
	}

	features := make([]Feature, 0, len(spec.FeatureFlags))
	for i, f := range spec.FeatureFlags {
		features = append(features, Feature{Type: f, Config: featureConfig(f), Priority: i})
	}

	managed := make([]ManagedAgent, 0, len(subAgentIDs))
	for i, id := range subAgentIDs {
		ref := ManagedAgent{ID: id}
		if i < len(spec.SubAgentFilenames) {
			ref.Name = strings.TrimSuffix(spec.SubAgentFilenames[i], ".yaml")
		}
		managed = append(managed, ref)
	}

	return AgentPayload{
		Name:              spec.Name,
		Description:       spec.Description,
		Model:             model,
		ProviderID:        providerID,
		LLMCredentialID:   credentialID,
		AgentRole:         spec.RoleDescription,
		AgentGoal:         spec.Goal,
		AgentInstructions: spec.Instructions,
		Temperature:       spec.Temperature,
		TopP:              defaultTopP,
		ResponseFormat:    ResponseFormat{Type: "text"},
		Features:          features,
		Tools:             []string{},
		Files:             []string{},
		ToolConfigs:       []map[string]any{},
		ManagedAgents:     managed,
	}
}

func (c *Client) defaultModel() string {
	if c.defaults.ModelID != "" {
		return c.defaults.ModelID
	}
	return defaultModel
}

func (c *Client) providerID() string {
	if c.defaults.ProviderID != "" {
		return c.defaults.ProviderID
	}
	return defaultProviderID
}

func (c *Client) credentialID() string {
	if c.defaults.CredentialID != "" {
		return c.defaults.CredentialID
	}
	return defaultCredentialID
}

func featureConfig(featureType string) map[string]any {
	if featureType == "SHORT_TERM_MEMORY" {
		return map[string]any{"message_count": 20}
	}
	return map[string]any{}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("studio request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
