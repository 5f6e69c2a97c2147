package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-pkgz/lgr"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const geminiDefaultModel = "gemini-1.5-flash"

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	client *genai.Client
	config Config
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("Gemini API key is required")
	}

	opts := []option.ClientOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(config.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client, config: config}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable lists one model
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		lgr.Printf("[WARN] gemini availability check failed: %v", err)
		return false
	}
	return true
}

// Complete runs GenerateContent on a single text part
func (p *GeminiProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	req = p.config.resolve(req, geminiDefaultModel)

	ctx, cancel := context.WithTimeout(ctx, p.config.timeout(defaultTimeout))
	defer cancel()

	model := p.client.GenerativeModel(req.Model)
	model.SetTemperature(req.Temperature)
	model.SetMaxOutputTokens(int32(req.MaxTokens))
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no response from Gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if text.Len() == 0 {
		return nil, errors.New("no text content in Gemini response")
	}

	out := &Response{Text: strings.TrimSpace(text.String()), Model: req.Model}
	if resp.UsageMetadata != nil {
		out.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	return out, nil
}

// Close releases the underlying client
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}
