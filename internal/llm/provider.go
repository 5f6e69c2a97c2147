package llm

import (
	"context"
	"time"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one system+user prompt and returns the model's text
	Complete(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Request is a single completion request
type Request struct {
	// System sets the assistant's role
	System string

	// Prompt is the user message
	Prompt string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature; zero uses defaultTemperature
	Temperature float32

	// JSON asks for a JSON-only answer where the backend supports it
	JSON bool
}

// Response contains the model output
type Response struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "gemini", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic/Gemini
	APIKey string

	// BaseURL for custom endpoints (OpenAI-compatible gateways, Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

const (
	defaultTemperature = 0.2
	defaultMaxTokens   = 900
	defaultTimeout     = 30 * time.Second
)

// DefaultConfig returns default LLM configuration
func DefaultConfig() Config {
	return Config{
		Timeout:   30,
		MaxTokens: defaultMaxTokens,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return time.Duration(c.Timeout) * time.Second
	}
	return fallback
}

// resolve fills request fields from the provider config
func (c Config) resolve(req Request, defaultModel string) Request {
	if req.Model == "" {
		req.Model = c.Model
	}
	if req.Model == "" {
		req.Model = defaultModel
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.MaxTokens
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = defaultMaxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = defaultTemperature
	}
	return req
}
