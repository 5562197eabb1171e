// Package config provides configuration loading and management for atelier.
package config

// Generator types.
const (
	GeneratorExec   = "exec"
	GeneratorOpenAI = "openai"
	GeneratorStudio = "studio"
)

const (
	defaultMaxCraftRetries = 5
	maxCraftRetriesCap     = 5
	defaultMaxSpecialists  = 4
)

// Config is the root configuration.
type Config struct {
	Studio    StudioConfig    `json:"studio"              mapstructure:"studio"`
	Generator GeneratorConfig `json:"generator"           mapstructure:"generator"`
	Defaults  AgentDefaults   `json:"defaults,omitempty"  mapstructure:"defaults"`
	Limits    Limits          `json:"limits,omitempty"    mapstructure:"limits"`
	Retention RetentionPolicy `json:"retention,omitempty" mapstructure:"retention"`
	Server    ServerConfig    `json:"server,omitempty"    mapstructure:"server"`
}

// StudioConfig describes the agent platform endpoint.
type StudioConfig struct {
	BaseURL   string `json:"base_url,omitempty"    mapstructure:"base_url"`
	APIKey    string `json:"api_key,omitempty"     mapstructure:"api_key"`
	APIKeyEnv string `json:"api_key_env,omitempty" mapstructure:"api_key_env"`
	Timeout   int    `json:"timeout,omitempty"     mapstructure:"timeout"`
}

// GeneratorConfig describes how agent designs are generated. AgentID names
// the platform-side builder agent and is only used by the studio generator.
type GeneratorConfig struct {
	Type      string   `json:"type"                  mapstructure:"type"`
	Model     string   `json:"model,omitempty"       mapstructure:"model"`
	BaseURL   string   `json:"base_url,omitempty"    mapstructure:"base_url"`
	APIKey    string   `json:"api_key,omitempty"     mapstructure:"api_key"`
	APIKeyEnv string   `json:"api_key_env,omitempty" mapstructure:"api_key_env"`
	AgentID   string   `json:"agent_id,omitempty"    mapstructure:"agent_id"`
	Cmd       []string `json:"cmd,omitempty"         mapstructure:"cmd"`
	UseTTY    *bool    `json:"use_tty,omitempty"     mapstructure:"use_tty"`
	Timeout   int      `json:"timeout,omitempty"     mapstructure:"timeout"`
}

// AgentDefaults fills spec fields the generator left empty.
type AgentDefaults struct {
	ModelID      string   `json:"model_id,omitempty"      mapstructure:"model_id"`
	Temperature  *float64 `json:"temperature,omitempty"   mapstructure:"temperature"`
	ProviderID   string   `json:"provider_id,omitempty"   mapstructure:"provider_id"`
	CredentialID string   `json:"credential_id,omitempty" mapstructure:"credential_id"`
	FeatureFlags []string `json:"feature_flags,omitempty" mapstructure:"feature_flags"`
}

// Limits defines build limits.
type Limits struct {
	MaxCraftRetries *int `json:"max_craft_retries,omitempty" mapstructure:"max_craft_retries"`
	MaxSpecialists  *int `json:"max_specialists,omitempty"   mapstructure:"max_specialists"`
}

// CraftRetries returns the retry budget for a single agent elaboration,
// defaulted and capped.
func (l Limits) CraftRetries() int {
	if l.MaxCraftRetries == nil {
		return defaultMaxCraftRetries
	}
	n := *l.MaxCraftRetries
	if n < 0 {
		return 0
	}
	if n > maxCraftRetriesCap {
		return maxCraftRetriesCap
	}
	return n
}

// Specialists returns the specialist count above which the architecture
// gate warns, defaulted. Zero disables the warning.
func (l Limits) Specialists() int {
	if l.MaxSpecialists == nil {
		return defaultMaxSpecialists
	}
	n := *l.MaxSpecialists
	if n < 0 {
		return 0
	}
	return n
}

// RetentionPolicy defines how many old builds to keep.
type RetentionPolicy struct {
	KeepLast int `json:"keep_last,omitempty" mapstructure:"keep_last"`
	KeepDays int `json:"keep_days,omitempty" mapstructure:"keep_days"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Listen string `json:"listen,omitempty" mapstructure:"listen"`
}
