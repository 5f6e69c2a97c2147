package retrieve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/factline/internal/extract/adapters"
	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/normalize"
	"github.com/ppiankov/factline/internal/util"
	"github.com/ppiankov/factline/internal/validate"
	"github.com/ppiankov/factline/internal/worker"
)

// searchTermLimit caps the keyword terms sent to the index
const searchTermLimit = 10

// Service gathers evidence from the index, query feeds and web search
type Service struct {
	index   Index
	indexer *Indexer
	query   *QuerySearcher // nil when query feeds are disabled
	web     *WebSearcher   // nil when web search is disabled
	cfg     model.RetrievalConfig
	opts    SelectOptions
	now     func() time.Time
}

// NewService builds the retrieval service from configuration
func NewService(cfg *model.Config, getter Getter, index Index) (*Service, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	sources := DefaultSources()
	if cfg.Feeds.File != "" {
		loaded, err := LoadSources(cfg.Feeds.File)
		if err != nil {
			return nil, fmt.Errorf("load feeds: %w", err)
		}
		sources = loaded
	}

	authority := validate.NewTierClassifier(&cfg.Authority)
	reader := NewFeedReader(getter, authority)

	svc := &Service{
		index:   index,
		indexer: NewIndexer(index, reader, sources, cfg.Feeds),
		cfg:     cfg.Retrieval,
		opts:    NewSelectOptions(cfg.Retrieval, cfg.FactCheck.MaxEvidence),
		now:     time.Now,
	}
	if cfg.Retrieval.QueryFeeds {
		svc.query = NewQuerySearcher(reader, cfg.Retrieval.ItemsPerQuery)
	}

	if cfg.WebSearch.Enabled {
		engines := adapters.NewRegistry().Select(cfg.WebSearch.Engines)
		if len(engines) == 0 {
			return nil, fmt.Errorf("web search enabled but no known engine in %v", cfg.WebSearch.Engines)
		}
		var robots *util.RobotsChecker
		if cfg.WebSearch.RespectRobots {
			robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
		}
		limiter := worker.NewLimiter(cfg.WebSearch.RatePerSecond, 1)
		enricher := validate.NewEnricher(getter, robots, authority, cfg.WebSearch.EnrichTop).WithLimiter(limiter)
		svc.web = NewWebSearcher(WebSearcherConfig{
			Getter:     getter,
			Engines:    engines,
			Limiter:    limiter,
			Enricher:   enricher,
			Authority:  authority,
			MaxResults: cfg.WebSearch.MaxResults,
			EnrichTop:  cfg.WebSearch.EnrichTop,
		})
	}

	return svc, nil
}

// Indexer returns the feed indexer
func (s *Service) Indexer() *Indexer {
	return s.indexer
}

// Gathered is the merged evidence pool of one request
type Gathered struct {
	Items []model.EvidenceItem
}

// Gather refreshes the index if due, runs query feeds and web search
// concurrently, searches the index and merges everything. Channel failures
// are logged and recorded in the diagnostics; they never fail the request.
func (s *Service) Gather(ctx context.Context, queries []string) (Gathered, model.Diagnostics) {
	var diag model.Diagnostics
	diag.Refresh = s.indexer.Refresh(ctx, false)
	if diag.Refresh.Failed > 0 {
		diag.Failures = append(diag.Failures, fmt.Sprintf("refresh: %d feeds failed", diag.Refresh.Failed))
	}

	var queryItems, webItems []model.EvidenceItem
	var queryFailed, webFailed int

	g, gctx := errgroup.WithContext(ctx)
	if s.query != nil {
		g.Go(func() error {
			queryItems, queryFailed = s.query.Search(gctx, queries)
			return nil
		})
	}
	if s.web != nil {
		g.Go(func() error {
			webItems, webFailed = s.web.Search(gctx, queries)
			return nil
		})
	}
	_ = g.Wait()

	if queryFailed > 0 {
		diag.Failures = append(diag.Failures, fmt.Sprintf("query_feeds: %d failed", queryFailed))
	}
	if webFailed > 0 {
		diag.Failures = append(diag.Failures, fmt.Sprintf("web: %d failed", webFailed))
	}
	diag.QueryFeedCount = len(queryItems)
	diag.WebCount = len(webItems)

	// search before persisting so query feed items are not counted twice
	terms := normalize.Keywords(strings.Join(queries, " "), searchTermLimit)
	indexed, err := s.indexer.Search(ctx, terms, s.cfg.SearchLimit)
	if err != nil {
		lgr.Printf("[WARN] index search failed: %v", err)
		diag.Failures = append(diag.Failures, "indexed: search failed")
	}
	diag.IndexedCount = len(indexed)

	if s.cfg.PersistQuery && len(queryItems) > 0 {
		if _, err := s.index.Upsert(ctx, queryItems); err != nil {
			lgr.Printf("[WARN] persist query feed items: %v", err)
		}
	}

	merged := Merge(indexed, queryItems, webItems)
	diag.MergedCount = len(merged)
	lgr.Printf("[DEBUG] gathered indexed=%d query_feeds=%d web=%d merged=%d",
		diag.IndexedCount, diag.QueryFeedCount, diag.WebCount, diag.MergedCount)

	return Gathered{Items: merged}, diag
}

// Select ranks the gathered items against the claim signatures, recording
// the candidate count and fallback in diag
func (s *Service) Select(gathered Gathered, signatures []string, diag *model.Diagnostics) []model.EvidenceItem {
	candidates, relaxed := SelectWithFallback(gathered.Items, signatures, s.now(), s.opts)
	if diag != nil {
		diag.CandidateCount = len(candidates)
		diag.Relaxed = relaxed
	}
	return candidates
}
