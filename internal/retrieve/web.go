package retrieve

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-pkgz/lgr"

	"github.com/ppiankov/factline/internal/extract/adapters"
	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/normalize"
	"github.com/ppiankov/factline/internal/validate"
	"github.com/ppiankov/factline/internal/worker"
)

// WebSearcher scrapes HTML search engines and enriches the top hits
type WebSearcher struct {
	getter     Getter
	engines    []adapters.Engine
	limiter    *worker.Limiter
	enricher   *validate.Enricher
	authority  *validate.TierClassifier
	maxResults int
	enrichTop  int
	now        func() time.Time
}

// WebSearcherConfig holds the collaborators of a WebSearcher
type WebSearcherConfig struct {
	Getter     Getter
	Engines    []adapters.Engine
	Limiter    *worker.Limiter
	Enricher   *validate.Enricher // nil disables enrichment
	Authority  *validate.TierClassifier
	MaxResults int
	EnrichTop  int
}

// NewWebSearcher creates a web searcher
func NewWebSearcher(cfg WebSearcherConfig) *WebSearcher {
	if cfg.Limiter == nil {
		cfg.Limiter = worker.NewLimiter(1, 1)
	}
	if cfg.Authority == nil {
		cfg.Authority = validate.NewTierClassifier(nil)
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 8
	}
	return &WebSearcher{
		getter:     cfg.Getter,
		engines:    cfg.Engines,
		limiter:    cfg.Limiter,
		enricher:   cfg.Enricher,
		authority:  cfg.Authority,
		maxResults: cfg.MaxResults,
		enrichTop:  cfg.EnrichTop,
		now:        time.Now,
	}
}

// Search runs every query on every engine. Engines run concurrently, queries
// on one engine run in order under the engine's host rate limit. Returns the
// items and the number of failed searches.
func (w *WebSearcher) Search(ctx context.Context, queries []string) ([]model.EvidenceItem, int) {
	if len(w.engines) == 0 || len(queries) == 0 {
		return nil, 0
	}

	perEngine := make([][]model.EvidenceItem, len(w.engines))
	failures := make([]int, len(w.engines))

	var wg sync.WaitGroup
	for i, engine := range w.engines {
		wg.Add(1)
		go func(idx int, engine adapters.Engine) {
			defer wg.Done()
			for _, query := range queries {
				items, err := w.searchOne(ctx, engine, query)
				if err != nil {
					lgr.Printf("[WARN] web search %s %q failed: %v", engine.Name(), query, err)
					failures[idx]++
					continue
				}
				perEngine[idx] = append(perEngine[idx], items...)
			}
		}(i, engine)
	}
	wg.Wait()

	// Interleave engines so the cap keeps results from each of them
	var items []model.EvidenceItem
	seen := make(map[string]bool)
	failed := 0
	for _, n := range failures {
		failed += n
	}
	for pos := 0; len(items) < w.maxResults; pos++ {
		progressed := false
		for _, list := range perEngine {
			if pos >= len(list) || len(items) >= w.maxResults {
				continue
			}
			progressed = true
			if seen[list[pos].Link] {
				continue
			}
			seen[list[pos].Link] = true
			items = append(items, list[pos])
		}
		if !progressed {
			break
		}
	}

	if w.enricher != nil && w.enrichTop > 0 && len(items) > 0 {
		n := w.enrichTop
		if n > len(items) {
			n = len(items)
		}
		enriched := w.enricher.Enrich(ctx, items[:n])
		copy(items, enriched)
	}

	return items, failed
}

// searchOne fetches and parses one result page
func (w *WebSearcher) searchOne(ctx context.Context, engine adapters.Engine, query string) ([]model.EvidenceItem, error) {
	searchURL := engine.SearchURL(query)
	if err := w.limiter.Wait(ctx, searchURL); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	body, _, err := w.getter.Get(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}

	fetchedAt := w.now().Unix()
	var items []model.EvidenceItem
	for _, hit := range engine.Parse(doc) {
		link := CanonicalLink(UnwrapRedirect(hit.Link))
		if !isHTTP(link) {
			continue
		}
		title := normalize.OneLine(hit.Title)
		if title == "" {
			continue
		}
		source := validate.SourceFromLink(link)
		items = append(items, model.EvidenceItem{
			Source:    normalize.Truncate(source, maxSourceLength),
			Tier:      w.authority.ClassifyOr(source, link, model.TierLow),
			Title:     normalize.Truncate(title, maxTitleLength),
			Summary:   normalize.Truncate(normalize.OneLine(hit.Snippet), maxSummaryLength),
			Link:      normalize.Truncate(link, maxLinkLength),
			FetchedAt: fetchedAt,
			Channel:   model.ChannelWeb,
		})
	}
	return items, nil
}
