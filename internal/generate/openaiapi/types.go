package openaiapi

import "time"

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultAPIKeyEnv = "OPENAI_API_KEY"
	defaultTimeout   = 120 * time.Second
)

// Config is OpenAI-compatible API client configuration.
type Config struct {
	Model     string
	BaseURL   string
	APIKey    string
	APIKeyEnv string
	Timeout   time.Duration
}

// CompletionRequest is a single responses API request.
type CompletionRequest struct {
	Instructions string
	Input        string
}

// CompletionResponse is a single responses API response.
type CompletionResponse struct {
	OutputText string
}
