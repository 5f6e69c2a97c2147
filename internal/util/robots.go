package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

const (
	robotsTTL      = 12 * time.Hour
	robotsMaxBytes = 512 << 10
)

type robotsEntry struct {
	data    *robotstxt.RobotsData
	fetched time.Time
}

// RobotsChecker answers robots.txt questions per host, caching each file for robotsTTL
type RobotsChecker struct {
	mu         sync.RWMutex
	cache      map[string]robotsEntry
	httpClient *http.Client
	userAgent  string
	agent      string // product token matched against User-agent groups
	now        func() time.Time
}

// NewRobotsChecker creates a new robots.txt checker
func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	return &RobotsChecker{
		cache: make(map[string]robotsEntry),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		agent:     NormalizeUserAgent(userAgent),
		now:       time.Now,
	}
}

// CanFetch checks if the URL can be fetched according to robots.txt.
// Returns (allowed, crawlDelay, error). An unreachable robots.txt allows.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Host == "" {
		return false, 0, fmt.Errorf("parse URL %q: missing host", rawURL)
	}

	data, err := r.robots(ctx, parsed)
	if err != nil {
		return true, 0, nil
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}

	var delay time.Duration
	if group := data.FindGroup(r.agent); group != nil {
		delay = group.CrawlDelay
	}
	return data.TestAgent(path, r.agent), delay, nil
}

// IsAllowed is a convenience method that returns only the allowed status
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) bool {
	allowed, _, _ := r.CanFetch(ctx, rawURL)
	return allowed
}

// Clear drops all cached robots.txt files
func (r *RobotsChecker) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]robotsEntry)
}

func (r *RobotsChecker) robots(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	host := strings.ToLower(target.Host)

	r.mu.RLock()
	entry, ok := r.cache[host]
	r.mu.RUnlock()
	if ok && r.now().Sub(entry.fetched) < robotsTTL {
		return entry.data, nil
	}

	robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, robotsMaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}

	// 4xx allows everything, 5xx disallows everything
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.cache[host] = robotsEntry{data: data, fetched: r.now()}
	r.mu.Unlock()
	return data, nil
}

// NormalizeUserAgent extracts the product token from a user agent string,
// e.g. "factline" from "factline/0.3 (+https://...)". Browser-style strings
// use the first "compatible;" product when present.
func NormalizeUserAgent(ua string) string {
	if i := strings.Index(ua, "compatible;"); i >= 0 {
		ua = ua[i+len("compatible;"):]
	}
	parts := strings.Fields(strings.TrimSpace(ua))
	if len(parts) == 0 {
		return ua
	}
	return strings.TrimRight(strings.Split(parts[0], "/")[0], ";)")
}
