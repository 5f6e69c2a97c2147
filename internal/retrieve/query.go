package retrieve

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/go-pkgz/lgr"

	"github.com/ppiankov/factline/internal/model"
)

// queryTemplate is a search engine RSS endpoint; %s receives the escaped query
type queryTemplate struct {
	name   string
	url    string
	region string
	lang   string
	tier   model.SourceTier
}

var queryTemplates = []queryTemplate{
	{name: "Google News", url: "https://news.google.com/rss/search?q=%s&hl=fa&gl=IR&ceid=IR:fa", region: "mixed", lang: "fa", tier: model.TierMedium},
	{name: "Google News", url: "https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en", region: "mixed", lang: "en", tier: model.TierMedium},
	{name: "Bing News", url: "https://www.bing.com/news/search?q=%s&format=rss", region: "mixed", lang: "", tier: model.TierLow},
}

// QueryFeeds returns the query-time feed sources for one search query
func QueryFeeds(query string) []Source {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	escaped := url.QueryEscape(query)

	sources := make([]Source, 0, len(queryTemplates))
	for _, tpl := range queryTemplates {
		sources = append(sources, Source{
			Name:   tpl.name,
			URL:    strings.Replace(tpl.url, "%s", escaped, 1),
			Region: tpl.region,
			Lang:   tpl.lang,
			Tier:   tpl.tier,
		})
	}
	return sources
}

// QuerySearcher reads search engine RSS feeds for each query
type QuerySearcher struct {
	reader  *FeedReader
	perFeed int
}

// NewQuerySearcher creates a query feed searcher reading up to perFeed items per feed
func NewQuerySearcher(reader *FeedReader, perFeed int) *QuerySearcher {
	if perFeed <= 0 {
		perFeed = 28
	}
	return &QuerySearcher{reader: reader, perFeed: perFeed}
}

// Search fetches every query feed for every query concurrently. Failed feeds
// are logged and skipped; the error count is returned alongside the items.
func (q *QuerySearcher) Search(ctx context.Context, queries []string) ([]model.EvidenceItem, int) {
	var sources []Source
	for _, query := range queries {
		sources = append(sources, QueryFeeds(query)...)
	}
	if len(sources) == 0 {
		return nil, 0
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		items  []model.EvidenceItem
		failed int
	)
	for _, src := range sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			got, err := q.reader.Read(ctx, src, q.perFeed)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				lgr.Printf("[WARN] query feed %s failed: %v", src.URL, err)
				failed++
				return
			}
			for i := range got {
				got[i].Channel = model.ChannelQueryFeed
			}
			items = append(items, got...)
		}(src)
	}
	wg.Wait()

	return items, failed
}
