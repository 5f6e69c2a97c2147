package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "", "internal.example.com,.corp")

	tests := []struct {
		url  string
		want string
	}{
		{"http://news.example.com/feed", "http://proxy.local:3128"},
		{"https://news.example.com/feed", "http://proxy.local:3128"},
		{"https://internal.example.com/feed", ""},
		{"https://wiki.corp/feed", ""},
	}

	for _, tt := range tests {
		req, err := http.NewRequest(http.MethodGet, tt.url, http.NoBody)
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		got, err := proxy(req)
		if err != nil {
			t.Fatalf("proxy(%s): %v", tt.url, err)
		}
		gotStr := ""
		if got != nil {
			gotStr = got.String()
		}
		if gotStr != tt.want {
			t.Errorf("proxy(%s) = %q, want %q", tt.url, gotStr, tt.want)
		}
	}
}

func TestNewProxyFunc_SeparateHTTPS(t *testing.T) {
	proxy := NewProxyFunc("http://plain.local:80", "http://secure.local:443", "")

	req, _ := http.NewRequest(http.MethodGet, "https://news.example.com", http.NoBody)
	got, err := proxy(req)
	if err != nil || got == nil || got.Host != "secure.local:443" {
		t.Errorf("https request proxy = %v, %v; want secure.local:443", got, err)
	}
}
