package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/factline/internal/model"
)

// NewProvider creates a new LLM provider based on configuration.
// An empty provider name disables the AI collaborator (nil, nil).
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "gemini", "google":
		return NewGeminiProvider(context.Background(), config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama, gemini)", config.Provider)
	}
}

// ConfigFromModel converts model.Config LLM and proxy settings to llm.Config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    cfg.LLM.Timeout,
		MaxTokens:  cfg.LLM.MaxTokens,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	}
}

// APIKeyFromEnv returns the conventional environment key for a provider
func APIKeyFromEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic", "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "gemini", "google":
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	default:
		return ""
	}
}

// BaseURLFromEnv returns the conventional environment base URL for a provider
func BaseURLFromEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "ollama":
		return os.Getenv("OLLAMA_BASE_URL")
	case "openai":
		return os.Getenv("OPENAI_BASE_URL")
	default:
		return ""
	}
}
