package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnthropicProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key header test-key, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("Expected anthropic-version header 2023-06-01, got %s", r.Header.Get("anthropic-version"))
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.System != "be terse" {
			t.Errorf("Expected system prompt, got %q", req.System)
		}
		if req.Model != anthropicDefaultModel {
			t.Errorf("Expected default model, got %s", req.Model)
		}
		if req.MaxTokens != defaultMaxTokens {
			t.Errorf("Expected default max tokens, got %d", req.MaxTokens)
		}

		_, _ = w.Write([]byte(`{
			"id": "msg_123",
			"type": "message",
			"content": [{"type": "text", "text": "[{\"idx\":1,"}, {"type": "text", "text": "\"label\":\"support\"}]"}],
			"model": "claude-3-5-haiku-20241022",
			"usage": {"input_tokens": 50, "output_tokens": 25}
		}`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Complete(context.Background(), Request{System: "be terse", Prompt: "label"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != `[{"idx":1,"label":"support"}]` {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if resp.TokensUsed != 75 {
		t.Errorf("Expected 75 tokens, got %d", resp.TokensUsed)
	}
}

func TestAnthropicProvider_Complete_APIError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"server error", http.StatusInternalServerError, `{"type":"error","error":{"type":"api_error","message":"Internal Server Error"}}`, "api_error"},
		{"rate limit", http.StatusTooManyRequests, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`, "429"},
		{"plain body", http.StatusBadGateway, `bad gateway`, "bad gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
			_, err := provider.Complete(context.Background(), Request{Prompt: "x"})
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestAnthropicProvider_Complete_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": [`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if _, err := provider.Complete(context.Background(), Request{Prompt: "x"}); err == nil {
		t.Fatal("Expected error for malformed JSON, got nil")
	}
}

func TestAnthropicProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Hi"}]}`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	if provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be false on 401")
	}
}
