package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/factline/internal/model"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_UpsertAndSearch(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().Unix()

	items := []model.EvidenceItem{
		{Source: "Reuters", Tier: model.TierHigh, Title: "Company X announces bankruptcy", Link: "https://reuters.com/a", PublishedTS: now - 3600, FetchedAt: now},
		{Source: "BBC", Tier: model.TierHigh, Title: "Oil prices rise", Summary: "Markets react to bankruptcy of Company X", Link: "https://bbc.com/b", PublishedTS: now - 60, FetchedAt: now},
		{Source: "ISNA", Title: "قيمت بنزين افزايش يافت", Link: "https://isna.ir/c", FetchedAt: now - 7200},
	}

	n, err := s.Upsert(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	t.Run("matches title and summary, newest first", func(t *testing.T) {
		found, err := s.Search(ctx, []string{"bankruptcy"}, 10)
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, "https://bbc.com/b", found[0].Link)
		assert.Equal(t, "https://reuters.com/a", found[1].Link)
		assert.Equal(t, model.ChannelIndexed, found[0].Channel)
		assert.Equal(t, model.TierHigh, found[0].Tier)
	})

	t.Run("persian variants match after normalization", func(t *testing.T) {
		found, err := s.Search(ctx, []string{"قیمت"}, 10)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "ISNA", found[0].Source)
		assert.Zero(t, found[0].PublishedTS, "unknown publish date stays unknown")
	})

	t.Run("no terms", func(t *testing.T) {
		found, err := s.Search(ctx, []string{"", "  "}, 10)
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("limit applies", func(t *testing.T) {
		found, err := s.Search(ctx, []string{"bankruptcy"}, 1)
		require.NoError(t, err)
		assert.Len(t, found, 1)
	})
}

func TestStore_UpsertConflictUpdates(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := model.EvidenceItem{Source: "Reuters", Title: "Old headline", Summary: "old summary", Link: "https://reuters.com/a", PublishedTS: 1000, FetchedAt: 2000}
	_, err := s.Upsert(ctx, []model.EvidenceItem{first})
	require.NoError(t, err)

	second := model.EvidenceItem{Source: "Reuters", Title: "New headline", Link: "https://reuters.com/a", FetchedAt: 3000}
	_, err = s.Upsert(ctx, []model.EvidenceItem{second})
	require.NoError(t, err)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	found, err := s.Search(ctx, []string{"headline"}, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "New headline", found[0].Title)
	assert.Equal(t, "old summary", found[0].Summary, "empty summary does not erase the stored one")
	assert.Equal(t, int64(1000), found[0].PublishedTS, "missing publish date keeps the stored one")
	assert.Equal(t, int64(3000), found[0].FetchedAt)
}

func TestStore_UpsertSkipsInvalid(t *testing.T) {
	s := setupTestStore(t)
	n, err := s.Upsert(context.Background(), []model.EvidenceItem{
		{Source: "x", Title: "", Link: "https://x.com"},
		{Source: "x", Title: "title", Link: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_Prune(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.Upsert(ctx, []model.EvidenceItem{
		{Source: "a", Title: "old story", Link: "https://a.com/1", PublishedTS: now.AddDate(0, 0, -40).Unix(), FetchedAt: now.Unix()},
		{Source: "a", Title: "fresh story", Link: "https://a.com/2", PublishedTS: now.Unix(), FetchedAt: now.Unix()},
		{Source: "a", Title: "undated old fetch", Link: "https://a.com/3", FetchedAt: now.AddDate(0, 0, -31).Unix()},
	})
	require.NoError(t, err)

	pruned, err := s.Prune(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_ConcurrentUpserts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			item := model.EvidenceItem{
				Source:    "wire",
				Title:     fmt.Sprintf("headline %d", n%4),
				Link:      fmt.Sprintf("https://wire.com/%d", n%4),
				FetchedAt: int64(1000 + n),
			}
			_, err := s.Upsert(ctx, []model.EvidenceItem{item})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestStore_Closed(t *testing.T) {
	s, err := Open(context.Background(), Config{DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Upsert(context.Background(), []model.EvidenceItem{{Source: "a", Title: "t", Link: "https://a.com"}})
	assert.True(t, errors.Is(err, ErrClosed))

	_, err = s.Search(context.Background(), []string{"t"}, 1)
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestIsLockError(t *testing.T) {
	assert.True(t, isLockError(errors.New("SQLITE_BUSY: database is locked")))
	assert.True(t, isLockError(errors.New("database table is locked")))
	assert.False(t, isLockError(errors.New("syntax error")))
	assert.False(t, isLockError(nil))
}

func TestStore_LastRefresh(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	last, err := s.LastRefresh(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	// query-feed upserts leave the refresh time alone
	_, err = s.Upsert(ctx, []model.EvidenceItem{
		{Source: "a", Title: "first", Link: "https://a.com/1", FetchedAt: 9000},
	})
	require.NoError(t, err)
	last, err = s.LastRefresh(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	require.NoError(t, s.MarkRefresh(ctx, time.Unix(5000, 0)))
	require.NoError(t, s.MarkRefresh(ctx, time.Unix(6000, 0)))
	last, err = s.LastRefresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), last.Unix())

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.MarkRefresh(ctx, time.Unix(7000, 0)), ErrClosed)
}
