// Package store persists retrieved news items in a sqlite evidence index
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/normalize"
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrClosed is returned by operations on a closed store
var ErrClosed = errors.New("store is closed")

const maxSearchTerms = 10

// Config represents database configuration
type Config struct {
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Store is the evidence index keyed by (source, canonical link)
type Store struct {
	db     *sqlx.DB
	mu     sync.Mutex // serializes read-modify-write sequences
	closed bool
}

// row mirrors a news_index record
type row struct {
	ID                int64         `db:"id"`
	Source            string        `db:"source"`
	SourceRegion      string        `db:"source_region"`
	SourceLang        string        `db:"source_lang"`
	SourceTier        string        `db:"source_tier"`
	Title             string        `db:"title"`
	Summary           string        `db:"summary"`
	Link              string        `db:"link"`
	PublishedTS       sql.NullInt64 `db:"published_ts"`
	NormalizedTitle   string        `db:"normalized_title"`
	NormalizedSummary string        `db:"normalized_summary"`
	FetchedAt         int64         `db:"fetched_at"`
}

// Open opens (and creates if needed) the evidence index
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		cfg.DSN = "file:factline.db?mode=rwc&_txlock=immediate"
	}

	db, err := sqlx.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// every :memory: connection is a separate database
	if cfg.DSN == ":memory:" || strings.Contains(cfg.DSN, "mode=memory") {
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("execute schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

const upsertQuery = `
	INSERT INTO news_index (
		source, source_region, source_lang, source_tier, title, summary, link,
		published_ts, normalized_title, normalized_summary, fetched_at
	) VALUES (
		:source, :source_region, :source_lang, :source_tier, :title, :summary, :link,
		:published_ts, :normalized_title, :normalized_summary, :fetched_at
	)
	ON CONFLICT(source, link) DO UPDATE SET
		source_region = excluded.source_region,
		source_lang = excluded.source_lang,
		source_tier = excluded.source_tier,
		title = excluded.title,
		summary = CASE WHEN excluded.summary != '' THEN excluded.summary ELSE news_index.summary END,
		published_ts = COALESCE(excluded.published_ts, news_index.published_ts),
		normalized_title = excluded.normalized_title,
		normalized_summary = CASE WHEN excluded.normalized_summary != '' THEN excluded.normalized_summary ELSE news_index.normalized_summary END,
		fetched_at = excluded.fetched_at
`

// Upsert inserts items or updates the existing row for the same (source, link).
// Items without a link or title are skipped. Returns the number of rows written.
func (s *Store) Upsert(ctx context.Context, items []model.EvidenceItem) (int, error) {
	rows := make([]row, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Link) == "" || strings.TrimSpace(item.Title) == "" {
			continue
		}
		rows = append(rows, toRow(item))
	}
	if len(rows) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("begin transaction: %w", err)}
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareNamedContext(ctx, upsertQuery)
		if err != nil {
			return &criticalError{err: fmt.Errorf("prepare upsert: %w", err)}
		}
		defer func() { _ = stmt.Close() }()

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r); err != nil {
				if isLockError(err) {
					return err // repeater will retry this
				}
				return &criticalError{err: fmt.Errorf("upsert %s: %w", r.Link, err)}
			}
		}

		if err := tx.Commit(); err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("commit upsert: %w", err)}
		}
		return nil
	})
	if err != nil {
		return 0, unwrapCritical(err)
	}

	return len(rows), nil
}

// Search returns items whose normalized title or summary contains any of the
// terms, newest first
func (s *Store) Search(ctx context.Context, terms []string, limit int) ([]model.EvidenceItem, error) {
	if limit <= 0 {
		limit = 260
	}

	var conds []string
	var args []any
	seen := make(map[string]bool)
	for _, term := range terms {
		term = normalize.Normalize(term)
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		conds = append(conds, "normalized_title LIKE ? OR normalized_summary LIKE ?")
		args = append(args, "%"+term+"%", "%"+term+"%")
		if len(seen) >= maxSearchTerms {
			break
		}
	}
	if len(conds) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	query := `SELECT * FROM news_index WHERE ` + strings.Join(conds, " OR ") +
		` ORDER BY COALESCE(published_ts, fetched_at) DESC, id DESC LIMIT ?`
	args = append(args, limit)

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("search news index: %w", err)
	}

	items := make([]model.EvidenceItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.toItem())
	}
	return items, nil
}

// Prune deletes rows older than the cutoff (by publish time, else fetch time)
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM news_index WHERE COALESCE(published_ts, fetched_at, 0) < ?", olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune news index: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune rows affected: %w", err)
	}
	return n, nil
}

// Count returns the number of indexed items
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM news_index"); err != nil {
		return 0, fmt.Errorf("count news index: %w", err)
	}
	return n, nil
}

func toRow(item model.EvidenceItem) row {
	r := row{
		Source:            item.Source,
		SourceRegion:      item.SourceRegion,
		SourceLang:        item.SourceLang,
		SourceTier:        string(model.ParseTier(string(item.Tier))),
		Title:             item.Title,
		Summary:           item.Summary,
		Link:              item.Link,
		NormalizedTitle:   normalize.Normalize(item.Title),
		NormalizedSummary: normalize.Normalize(item.Summary),
		FetchedAt:         item.FetchedAt,
	}
	if item.PublishedTS > 0 {
		r.PublishedTS = sql.NullInt64{Int64: item.PublishedTS, Valid: true}
	}
	if r.FetchedAt == 0 {
		r.FetchedAt = time.Now().Unix()
	}
	return r
}

func (r row) toItem() model.EvidenceItem {
	item := model.EvidenceItem{
		Source:       r.Source,
		SourceRegion: r.SourceRegion,
		SourceLang:   r.SourceLang,
		Tier:         model.ParseTier(r.SourceTier),
		Title:        r.Title,
		Summary:      r.Summary,
		Link:         r.Link,
		FetchedAt:    r.FetchedAt,
		Channel:      model.ChannelIndexed,
	}
	if r.PublishedTS.Valid {
		item.PublishedTS = r.PublishedTS.Int64
	}
	return item
}

const lastRefreshKey = "last_refresh"

// LastRefresh returns when an indexed-feed refresh last started, zero if never.
// Query-feed upserts do not move it.
func (s *Store) LastRefresh(ctx context.Context) (time.Time, error) {
	var ts sql.NullInt64
	err := s.db.GetContext(ctx, &ts, "SELECT value FROM index_meta WHERE key = ?", lastRefreshKey)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last refresh: %w", err)
	}
	if !ts.Valid || ts.Int64 <= 0 {
		return time.Time{}, nil
	}
	return time.Unix(ts.Int64, 0), nil
}

// MarkRefresh records the start time of an indexed-feed refresh
func (s *Store) MarkRefresh(ctx context.Context, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO index_meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, lastRefreshKey, at.Unix())
		if err != nil && !isLockError(err) {
			return &criticalError{err: fmt.Errorf("mark refresh: %w", err)}
		}
		return err
	})
	return unwrapCritical(err)
}
