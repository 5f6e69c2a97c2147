package retrieve

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/normalize"
)

// memIndex is an in-memory Index
type memIndex struct {
	mu      sync.Mutex
	items   map[string]model.EvidenceItem
	pruneAt time.Time
	upserts int

	lastRefresh time.Time
}

func newMemIndex() *memIndex {
	return &memIndex{items: make(map[string]model.EvidenceItem)}
}

func (m *memIndex) Upsert(_ context.Context, items []model.EvidenceItem) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	for _, item := range items {
		m.items[item.Source+"|"+item.Link] = item
	}
	return len(items), nil
}

func (m *memIndex) Search(_ context.Context, terms []string, limit int) ([]model.EvidenceItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.EvidenceItem
	for _, item := range m.items {
		text := normalize.Normalize(item.Text())
		for _, term := range terms {
			if strings.Contains(text, normalize.Normalize(term)) {
				item.Channel = model.ChannelIndexed
				out = append(out, item)
				break
			}
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memIndex) Prune(_ context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneAt = olderThan
	var n int64
	for key, item := range m.items {
		if item.Timestamp() < olderThan.Unix() {
			delete(m.items, key)
			n++
		}
	}
	return n, nil
}

func (m *memIndex) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items), nil
}

func (m *memIndex) LastRefresh(_ context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRefresh, nil
}

func (m *memIndex) MarkRefresh(_ context.Context, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRefresh = at
	return nil
}

func feedBody(name string, n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>` + name + `</title>`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<item><title>%s story %d</title><link>https://%s.example.com/%d</link><pubDate>Fri, 10 Oct 2025 10:00:00 GMT</pubDate></item>`,
			name, i, strings.ToLower(name), i)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func testSources(n int) []Source {
	sources := make([]Source, n)
	for i := range sources {
		sources[i] = Source{Name: fmt.Sprintf("Feed%d", i), URL: fmt.Sprintf("https://feed%d.example.com/rss", i), Lang: "en"}
	}
	return sources
}

func newTestIndexer(t *testing.T, sources []Source, bodies map[string]string, cfg model.FeedsConfig) (*Indexer, *memIndex, *stubGetter, *time.Time) {
	t.Helper()
	clock := time.Date(2025, 10, 10, 12, 0, 0, 0, time.UTC)
	reader, getter := newTestReader(bodies)
	reader.now = func() time.Time { return clock }
	index := newMemIndex()
	indexer := NewIndexer(index, reader, sources, cfg)
	indexer.now = func() time.Time { return clock }
	return indexer, index, getter, &clock
}

func TestIndexer_RefreshRotatesBatches(t *testing.T) {
	sources := testSources(3)
	bodies := map[string]string{}
	for i, src := range sources {
		bodies[src.URL] = feedBody(src.Name, i+1)
	}
	cfg := model.FeedsConfig{RefreshInterval: time.Hour, RefreshBatch: 2, RefreshBudget: 20 * time.Second, Workers: 2, ItemsPerFeed: 35}
	indexer, index, getter, _ := newTestIndexer(t, sources, bodies, cfg)

	info := indexer.Refresh(context.Background(), true)
	assert.False(t, info.Skipped)
	assert.Equal(t, 2, info.Feeds)
	assert.Equal(t, 0, info.Failed)
	assert.Equal(t, 3, info.Items, "feed0 has 1 item, feed1 has 2")
	assert.Equal(t, 2, getter.callCount())

	info = indexer.Refresh(context.Background(), true)
	assert.Equal(t, 2, info.Feeds, "cursor wraps around: feed2 then feed0")
	assert.Equal(t, 4, info.Items)

	count, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestIndexer_RefreshSkippedWithinInterval(t *testing.T) {
	sources := testSources(1)
	bodies := map[string]string{sources[0].URL: feedBody("Feed0", 2)}
	cfg := model.FeedsConfig{RefreshInterval: time.Hour, RefreshBatch: 8, Workers: 2}
	indexer, _, getter, clock := newTestIndexer(t, sources, bodies, cfg)

	first := indexer.Refresh(context.Background(), false)
	require.False(t, first.Skipped)

	second := indexer.Refresh(context.Background(), false)
	assert.True(t, second.Skipped)
	assert.Equal(t, "interval", second.Reason)
	assert.Equal(t, 1, getter.callCount())

	forced := indexer.Refresh(context.Background(), true)
	assert.False(t, forced.Skipped)

	*clock = clock.Add(61 * time.Minute)
	later := indexer.Refresh(context.Background(), false)
	assert.False(t, later.Skipped)
	assert.Equal(t, 3, getter.callCount())
}

func TestIndexer_RefreshHonoursStoredRefreshTime(t *testing.T) {
	sources := testSources(1)
	cfg := model.FeedsConfig{RefreshInterval: time.Hour, Workers: 1}
	indexer, index, getter, clock := newTestIndexer(t, sources, map[string]string{}, cfg)

	// another process refreshed ten minutes ago
	require.NoError(t, index.MarkRefresh(context.Background(), clock.Add(-10*time.Minute)))

	info := indexer.Refresh(context.Background(), false)
	assert.True(t, info.Skipped)
	assert.Zero(t, getter.callCount())
}

func TestIndexer_QueryUpsertsDoNotDelayRefresh(t *testing.T) {
	sources := testSources(1)
	bodies := map[string]string{sources[0].URL: feedBody("Feed0", 1)}
	cfg := model.FeedsConfig{RefreshInterval: time.Hour, Workers: 1}
	indexer, index, getter, clock := newTestIndexer(t, sources, bodies, cfg)

	require.False(t, indexer.Refresh(context.Background(), false).Skipped)
	start := *clock

	// fact-checks keep persisting query-feed items every half hour
	for _, offset := range []time.Duration{30 * time.Minute, 70 * time.Minute} {
		*clock = start.Add(offset)
		_, err := index.Upsert(context.Background(), []model.EvidenceItem{
			{Source: "q", Title: "query hit", Link: fmt.Sprintf("https://q.com/%d", offset), FetchedAt: clock.Unix()},
		})
		require.NoError(t, err)
	}

	info := indexer.Refresh(context.Background(), false)
	assert.False(t, info.Skipped, "refresh is due 70 minutes after the last one")
	assert.Equal(t, 2, getter.callCount())
}

// testClock is a clock shared between the indexer and a slow getter
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// slowGetter serves feed bodies, each fetch taking delay on the test clock
type slowGetter struct {
	stubGetter
	clock *testClock
	delay time.Duration
}

func (g *slowGetter) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	g.clock.Advance(g.delay)
	return g.stubGetter.Get(ctx, rawURL)
}

func TestIndexer_RefreshStopsAtBudget(t *testing.T) {
	sources := testSources(8)
	bodies := map[string]string{}
	for _, src := range sources {
		bodies[src.URL] = feedBody(src.Name, 1)
	}

	tests := []struct {
		name    string
		workers int
		force   bool
		want    func(t *testing.T, feeds int)
	}{
		{"sequential", 1, false, func(t *testing.T, feeds int) { assert.Equal(t, 1, feeds) }},
		{"default workers", 4, false, func(t *testing.T, feeds int) {
			assert.GreaterOrEqual(t, feeds, 1)
			assert.Less(t, feeds, 8, "feeds starting after the budget must be skipped")
		}},
		{"forced ignores budget", 4, true, func(t *testing.T, feeds int) { assert.Equal(t, 8, feeds) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &testClock{now: time.Date(2025, 10, 10, 12, 0, 0, 0, time.UTC)}
			getter := &slowGetter{stubGetter: stubGetter{bodies: bodies}, clock: clock, delay: 400 * time.Millisecond}
			reader := NewFeedReader(getter, nil)
			reader.now = clock.Now

			cfg := model.FeedsConfig{RefreshBatch: 8, Workers: tt.workers, RefreshBudget: 100 * time.Millisecond}
			indexer := NewIndexer(newMemIndex(), reader, sources, cfg)
			indexer.now = clock.Now

			info := indexer.Refresh(context.Background(), tt.force)
			require.False(t, info.Skipped)
			tt.want(t, info.Feeds)
			assert.Equal(t, info.Feeds, getter.callCount())
			assert.Equal(t, info.Feeds, info.Items)
		})
	}
}

func TestIndexer_RefreshCountsFailures(t *testing.T) {
	sources := testSources(3)
	bodies := map[string]string{sources[1].URL: feedBody("Feed1", 2)}
	cfg := model.FeedsConfig{RefreshBatch: 3, Workers: 3, RetainDays: 30}
	indexer, index, _, clock := newTestIndexer(t, sources, bodies, cfg)

	info := indexer.Refresh(context.Background(), true)
	assert.Equal(t, 3, info.Feeds)
	assert.Equal(t, 2, info.Failed)
	assert.Equal(t, 2, info.Items)
	assert.Equal(t, clock.AddDate(0, 0, -30), index.pruneAt)
}

func TestIndexer_RefreshPrunesOldItems(t *testing.T) {
	cfg := model.FeedsConfig{RetainDays: 30, Workers: 1}
	indexer, index, _, clock := newTestIndexer(t, nil, map[string]string{}, cfg)

	_, err := index.Upsert(context.Background(), []model.EvidenceItem{
		{Source: "a", Title: "old", Link: "https://a.com/old", PublishedTS: clock.AddDate(0, 0, -40).Unix()},
	})
	require.NoError(t, err)

	info := indexer.Refresh(context.Background(), true)
	assert.True(t, info.Skipped)
	assert.Equal(t, "no_feeds", info.Reason)

	indexer.sources = testSources(1)
	info = indexer.Refresh(context.Background(), true)
	assert.Equal(t, int64(1), info.Pruned)
}

func TestIndexer_ConcurrentRefreshRunsOnce(t *testing.T) {
	sources := testSources(2)
	bodies := map[string]string{}
	for _, src := range sources {
		bodies[src.URL] = feedBody(src.Name, 1)
	}
	cfg := model.FeedsConfig{RefreshInterval: time.Hour, RefreshBatch: 2, Workers: 2}
	indexer, _, getter, _ := newTestIndexer(t, sources, bodies, cfg)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ran := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if info := indexer.Refresh(context.Background(), false); !info.Skipped {
				mu.Lock()
				ran++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ran)
	assert.Equal(t, 2, getter.callCount())
}

func TestIndexer_Schedule(t *testing.T) {
	indexer, _, _, _ := newTestIndexer(t, testSources(1), map[string]string{}, model.FeedsConfig{})

	c, err := indexer.Schedule(context.Background(), "not a schedule")
	assert.Error(t, err)
	assert.Nil(t, c)

	c, err = indexer.Schedule(context.Background(), "@every 1h")
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)
	<-c.Stop().Done()
}
