package validate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/util"
	"github.com/ppiankov/factline/internal/worker"
)

// httpGetter is a minimal Getter over net/http
type httpGetter struct {
	calls atomic.Int32
}

func (g *httpGetter) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	g.calls.Add(1)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	return body, resp.Request.URL.String(), err
}

type failingGetter struct{}

func (failingGetter) Get(context.Context, string) ([]byte, string, error) {
	return nil, "", errors.New("fetch: connection refused")
}

const articlePage = `<html><head>
<meta property="og:title" content="Full article title">
<meta property="og:description" content="Longer description from the page.">
<meta property="og:site_name" content="Reuters">
<meta property="article:published_time" content="2024-01-02T10:00:00Z">
</head><body></body></html>`

func TestEnricher_Enrich_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, articlePage)
	}))
	defer server.Close()

	enricher := NewEnricher(&httpGetter{}, nil, nil, 2)
	items := []model.EvidenceItem{
		{Source: "127.0.0.1", Tier: model.TierMedium, Title: "snippet title", Summary: "snippet", Link: server.URL + "/a", Channel: model.ChannelWeb},
	}

	enriched := enricher.Enrich(context.Background(), items)
	if len(enriched) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(enriched))
	}

	got := enriched[0]
	if got.Title != "Full article title" {
		t.Errorf("Unexpected title: %q", got.Title)
	}
	if got.Summary != "Longer description from the page." {
		t.Errorf("Unexpected summary: %q", got.Summary)
	}
	if got.Source != "Reuters" || got.Tier != model.TierHigh {
		t.Errorf("Expected Reuters/high, got %s/%s", got.Source, got.Tier)
	}
	if got.PublishedTS != time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC).Unix() {
		t.Errorf("Unexpected published ts: %d", got.PublishedTS)
	}
	if got.Channel != model.ChannelWeb {
		t.Errorf("Channel must be preserved, got %s", got.Channel)
	}
}

func TestEnricher_Enrich_FailureKeepsSnippet(t *testing.T) {
	enricher := NewEnricher(failingGetter{}, nil, nil, 2)
	items := []model.EvidenceItem{
		{Source: "example.com", Title: "snippet title", Summary: "snippet", Link: "https://example.com/a"},
	}

	enriched := enricher.Enrich(context.Background(), items)
	if enriched[0] != items[0] {
		t.Errorf("Expected item unchanged, got %+v", enriched[0])
	}
}

func TestEnricher_Enrich_RobotsDisallow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
			return
		}
		_, _ = fmt.Fprint(w, articlePage)
	}))
	defer server.Close()

	getter := &httpGetter{}
	robots := util.NewRobotsChecker("factline", 5*time.Second)
	enricher := NewEnricher(getter, robots, nil, 2)

	items := []model.EvidenceItem{
		{Title: "private", Link: server.URL + "/private/a"},
		{Title: "public", Link: server.URL + "/public/a"},
	}
	enriched := enricher.Enrich(context.Background(), items)

	if enriched[0].Title != "private" {
		t.Errorf("Disallowed page must not be enriched, got %q", enriched[0].Title)
	}
	if enriched[1].Title != "Full article title" {
		t.Errorf("Allowed page must be enriched, got %q", enriched[1].Title)
	}
	if getter.calls.Load() != 1 {
		t.Errorf("Expected 1 page fetch, got %d", getter.calls.Load())
	}
}

func TestEnricher_Enrich_CrawlDelay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nCrawl-delay: 1\n")
			return
		}
		_, _ = fmt.Fprint(w, articlePage)
	}))
	defer server.Close()

	robots := util.NewRobotsChecker("factline", 5*time.Second)
	enricher := NewEnricher(&httpGetter{}, robots, nil, 1).WithLimiter(worker.NewLimiter(100, 1))

	items := []model.EvidenceItem{
		{Title: "first", Link: server.URL + "/a"},
		{Title: "second", Link: server.URL + "/b"},
	}
	start := time.Now()
	enriched := enricher.Enrich(context.Background(), items)

	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Errorf("Expected crawl delay between fetches, took %v", elapsed)
	}
	for i, item := range enriched {
		if item.Title != "Full article title" {
			t.Errorf("Item %d not enriched: %q", i, item.Title)
		}
	}
}

func TestEnricher_Enrich_Concurrency(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		_, _ = fmt.Fprintf(w, `<html><head><title>page %s</title></head></html>`, r.URL.Path)
	}))
	defer server.Close()

	enricher := NewEnricher(&httpGetter{}, nil, nil, 3)
	var items []model.EvidenceItem
	for i := 0; i < 10; i++ {
		items = append(items, model.EvidenceItem{Title: "t", Link: fmt.Sprintf("%s/%d", server.URL, i)})
	}

	enriched := enricher.Enrich(context.Background(), items)
	for i, item := range enriched {
		if want := fmt.Sprintf("page /%d", i); item.Title != want {
			t.Errorf("Item %d: expected %q, got %q (order must match input)", i, want, item.Title)
		}
	}
	if maxInFlight.Load() > 3 {
		t.Errorf("Expected at most 3 concurrent fetches, got %d", maxInFlight.Load())
	}
}

func TestEnricher_Enrich_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	enricher := NewEnricher(failingGetter{}, nil, nil, 1)
	items := []model.EvidenceItem{{Title: "a", Link: "https://a.com"}, {Title: "b", Link: "https://b.com"}}
	enriched := enricher.Enrich(ctx, items)

	if len(enriched) != 2 || enriched[0].Title != "a" || enriched[1].Title != "b" {
		t.Errorf("Expected items unchanged on cancellation, got %+v", enriched)
	}
}

func TestEnricher_Enrich_Empty(t *testing.T) {
	enricher := NewEnricher(failingGetter{}, nil, nil, 0)
	if got := enricher.Enrich(context.Background(), nil); len(got) != 0 {
		t.Errorf("Expected empty result, got %d items", len(got))
	}
}
