package validate

import (
	"context"
	"net/url"
	"sync"

	"github.com/go-pkgz/lgr"

	"github.com/ppiankov/factline/internal/extract"
	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/normalize"
	"github.com/ppiankov/factline/internal/util"
	"github.com/ppiankov/factline/internal/worker"
)

// maxSummaryLength caps summaries taken from page metadata (in runes)
const maxSummaryLength = 400

// Getter downloads a page and returns its body and final URL
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, string, error)
}

// Enricher upgrades search-result evidence with article page metadata
type Enricher struct {
	getter     Getter
	robots     *util.RobotsChecker
	meta       *extract.PageMetaExtractor
	authority  *TierClassifier
	limiter    *worker.Limiter // optional per-host pacing
	maxWorkers int
}

// NewEnricher creates a new enricher. A nil robots checker skips robots.txt checks.
func NewEnricher(getter Getter, robots *util.RobotsChecker, authority *TierClassifier, maxWorkers int) *Enricher {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if authority == nil {
		authority = NewTierClassifier(nil)
	}

	return &Enricher{
		getter:     getter,
		robots:     robots,
		meta:       extract.NewPageMetaExtractor(),
		authority:  authority,
		maxWorkers: maxWorkers,
	}
}

// WithLimiter paces article fetches per host. robots.txt crawl delays are
// applied to the limiter as they are discovered.
func (e *Enricher) WithLimiter(l *worker.Limiter) *Enricher {
	e.limiter = l
	return e
}

// Enrich fetches the pages of items concurrently and replaces title, summary,
// publish date and publisher from page metadata. Items whose page cannot be
// fetched or parsed keep their snippet fields. Output order matches input.
func (e *Enricher) Enrich(ctx context.Context, items []model.EvidenceItem) []model.EvidenceItem {
	if len(items) == 0 {
		return []model.EvidenceItem{}
	}

	results := make([]model.EvidenceItem, len(items))
	var wg sync.WaitGroup

	// Create semaphore to limit concurrent requests
	semaphore := make(chan struct{}, e.maxWorkers)

	for i, item := range items {
		wg.Add(1)
		go func(idx int, it model.EvidenceItem) {
			defer wg.Done()

			// Acquire semaphore
			select {
			case <-ctx.Done():
				results[idx] = it
				return
			case semaphore <- struct{}{}:
			}

			// Release semaphore when done
			defer func() { <-semaphore }()

			results[idx] = e.enrichSingle(ctx, it)
		}(i, item)
	}

	// Wait for all pages to complete
	wg.Wait()

	return results
}

// enrichSingle enriches one item, returning it unchanged on any failure
func (e *Enricher) enrichSingle(ctx context.Context, item model.EvidenceItem) model.EvidenceItem {
	if e.robots != nil {
		allowed, delay, _ := e.robots.CanFetch(ctx, item.Link)
		if !allowed {
			lgr.Printf("[DEBUG] robots.txt disallows %s, keeping snippet", item.Link)
			return item
		}
		if e.limiter != nil && delay > 0 {
			if u, err := url.Parse(item.Link); err == nil {
				e.limiter.SetCrawlDelay(u.Hostname(), delay)
			}
		}
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, item.Link); err != nil {
			return item
		}
	}

	body, finalURL, err := e.getter.Get(ctx, item.Link)
	if err != nil {
		lgr.Printf("[DEBUG] enrich %s: %v", item.Link, err)
		return item
	}

	meta, err := e.meta.Extract(string(body), finalURL)
	if err != nil {
		lgr.Printf("[DEBUG] parse page %s: %v", item.Link, err)
		return item
	}

	if meta.Title != "" {
		item.Title = normalize.Truncate(meta.Title, model.MaxClaimLength)
	}
	if meta.Description != "" {
		item.Summary = normalize.Truncate(meta.Description, maxSummaryLength)
	}
	if !meta.Published.IsZero() {
		item.PublishedTS = meta.Published.Unix()
	}
	if meta.SiteName != "" {
		item.Source = meta.SiteName
		item.Tier = e.authority.Classify(item.Source, item.Link)
	}

	return item
}
