package retrieve

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/robfig/cron/v3"

	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/worker"
)

// Index is the persistent evidence store used by retrieval
type Index interface {
	Upsert(ctx context.Context, items []model.EvidenceItem) (int, error)
	Search(ctx context.Context, terms []string, limit int) ([]model.EvidenceItem, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
	Count(ctx context.Context) (int, error)
	LastRefresh(ctx context.Context) (time.Time, error)
	MarkRefresh(ctx context.Context, at time.Time) error
}

// Indexer keeps the feed index fresh by reading a rotating batch of feeds
type Indexer struct {
	index   Index
	reader  *FeedReader
	sources []Source
	cfg     model.FeedsConfig
	now     func() time.Time

	mu          sync.Mutex
	lastRefresh time.Time
	cursor      int
}

// NewIndexer creates an indexer over sources
func NewIndexer(index Index, reader *FeedReader, sources []Source, cfg model.FeedsConfig) *Indexer {
	defaults := model.DefaultConfig().Feeds
	if cfg.RefreshBatch <= 0 {
		cfg.RefreshBatch = defaults.RefreshBatch
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.ItemsPerFeed <= 0 {
		cfg.ItemsPerFeed = defaults.ItemsPerFeed
	}
	if cfg.RefreshBudget <= 0 {
		cfg.RefreshBudget = defaults.RefreshBudget
	}
	return &Indexer{
		index:   index,
		reader:  reader,
		sources: sources,
		cfg:     cfg,
		now:     time.Now,
	}
}

// feedJob reads one feed for the worker pool. A job that starts after its
// deadline is skipped without fetching.
type feedJob struct {
	src      Source
	reader   *FeedReader
	limit    int
	deadline time.Time // zero means no deadline
	now      func() time.Time
}

// feedResult is the outcome of one feedJob
type feedResult struct {
	src     Source
	items   []model.EvidenceItem
	err     error
	skipped bool
}

func (j *feedJob) Execute(ctx context.Context) worker.Result {
	if !j.deadline.IsZero() && !j.now().Before(j.deadline) {
		return &feedResult{src: j.src, skipped: true}
	}
	items, err := j.reader.Read(ctx, j.src, j.limit)
	return &feedResult{src: j.src, items: items, err: err}
}

func (r *feedResult) GetError() error {
	return r.err
}

// Refresh reads the next batch of feeds into the index. Unless force is set
// it is skipped when the previous refresh (in this process or, judging by the
// index, another one) is younger than the refresh interval, and feeds not
// started before the time budget is spent are left for the next batch.
func (i *Indexer) Refresh(ctx context.Context, force bool) model.RefreshInfo {
	start := i.now()

	batch, ok := i.claim(ctx, start, force)
	if !ok {
		return model.RefreshInfo{Skipped: true, Reason: "interval"}
	}
	if len(batch) == 0 {
		return model.RefreshInfo{Skipped: true, Reason: "no_feeds"}
	}

	pool := worker.NewPoolWithContext(ctx, i.cfg.Workers)
	pool.Start()

	var deadline time.Time
	if !force {
		deadline = start.Add(i.cfg.RefreshBudget)
	}
	for _, src := range batch {
		job := &feedJob{src: src, reader: i.reader, limit: i.cfg.ItemsPerFeed, deadline: deadline, now: i.now}
		if !pool.Submit(job) {
			break
		}
	}

	info := model.RefreshInfo{}
	skipped := 0
	var items []model.EvidenceItem
	for _, res := range pool.Wait() {
		r := res.(*feedResult)
		if r.skipped {
			skipped++
			continue
		}
		info.Feeds++
		if r.err != nil {
			lgr.Printf("[WARN] feed %s failed: %v", r.src.Name, r.err)
			info.Failed++
			continue
		}
		for _, item := range r.items {
			item.Channel = model.ChannelIndexed
			items = append(items, item)
		}
	}

	if skipped > 0 {
		lgr.Printf("[DEBUG] refresh budget %s spent, %d feeds left for the next batch", i.cfg.RefreshBudget, skipped)
	}

	if len(items) > 0 {
		n, err := i.index.Upsert(ctx, items)
		if err != nil {
			lgr.Printf("[ERROR] index upsert failed: %v", err)
		}
		info.Items = n
	}

	if i.cfg.RetainDays > 0 {
		cutoff := i.now().AddDate(0, 0, -i.cfg.RetainDays)
		pruned, err := i.index.Prune(ctx, cutoff)
		if err != nil {
			lgr.Printf("[WARN] index prune failed: %v", err)
		}
		info.Pruned = pruned
	}

	info.TookMS = i.now().Sub(start).Milliseconds()
	lgr.Printf("[INFO] refreshed %d feeds (%d failed), %d items, %d pruned in %dms",
		info.Feeds, info.Failed, info.Items, info.Pruned, info.TookMS)
	return info
}

// claim checks the refresh interval and advances the cursor atomically
func (i *Indexer) claim(ctx context.Context, now time.Time, force bool) ([]Source, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !force && i.cfg.RefreshInterval > 0 {
		last := i.lastRefresh
		if stored, err := i.index.LastRefresh(ctx); err == nil && stored.After(last) {
			last = stored
		}
		if !last.IsZero() && now.Sub(last) < i.cfg.RefreshInterval {
			return nil, false
		}
	}
	i.lastRefresh = now
	if err := i.index.MarkRefresh(ctx, now); err != nil {
		lgr.Printf("[WARN] record refresh time: %v", err)
	}

	if len(i.sources) == 0 {
		return nil, true
	}
	size := i.cfg.RefreshBatch
	if size > len(i.sources) {
		size = len(i.sources)
	}
	batch := make([]Source, 0, size)
	for n := 0; n < size; n++ {
		batch = append(batch, i.sources[(i.cursor+n)%len(i.sources)])
	}
	i.cursor = (i.cursor + size) % len(i.sources)
	return batch, true
}

// Search queries the index for items containing any of the terms
func (i *Indexer) Search(ctx context.Context, terms []string, limit int) ([]model.EvidenceItem, error) {
	return i.index.Search(ctx, terms, limit)
}

// Schedule starts a cron scheduler running a forced refresh on spec
// (e.g., "@every 60m"). The caller stops the returned scheduler.
func (i *Indexer) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	if spec == "" {
		spec = model.DefaultConfig().Feeds.Schedule
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		i.Refresh(ctx, true)
	}); err != nil {
		return nil, fmt.Errorf("schedule refresh %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
