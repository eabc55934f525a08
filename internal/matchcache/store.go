// Package matchcache stores ranked resolution results keyed by normalized query.
package matchcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/snapshelf/snapshelf/internal/catalog"
)

// ErrNotFound is returned when no live entry exists for a query.
var ErrNotFound = errors.New("match cache entry not found")

// Entry is a cached resolution result.
type Entry struct {
	Query           string              `json:"query"`
	NormalizedQuery string              `json:"normalizedQuery"`
	Candidates      []catalog.Candidate `json:"candidates"`
	ExpiresAt       time.Time           `json:"expiresAt"`
	CreatedAt       time.Time           `json:"createdAt"`
}

// Expired reports whether the entry is past its expiry at now.
func (e *Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Stats describes the cache contents.
type Stats struct {
	Live    int64 `json:"live"`
	Expired int64 `json:"expired"`
}

// Store keeps at most one entry per normalized query in SQLite.
type Store struct {
	db    *sql.DB
	clock clockwork.Clock
}

// NewStore creates a new match cache store.
func NewStore(db *sql.DB, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{db: db, clock: clock}
}

// Get returns the live entry for a normalized query. Expired rows are
// ignored and reported as ErrNotFound.
func (s *Store) Get(ctx context.Context, normalizedQuery string) (*Entry, error) {
	var (
		e                    Entry
		candidates           string
		expiresAt, createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT query, normalized_query, candidates, expires_at, created_at
		FROM match_cache WHERE normalized_query = ? AND expires_at > ?`,
		normalizedQuery, s.clock.Now().UnixMilli(),
	).Scan(&e.Query, &e.NormalizedQuery, &candidates, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read match cache: %w", err)
	}

	if err := json.Unmarshal([]byte(candidates), &e.Candidates); err != nil {
		return nil, fmt.Errorf("failed to decode cached candidates: %w", err)
	}
	e.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &e, nil
}

// Put upserts an entry for query that expires after ttl.
func (s *Store) Put(ctx context.Context, query, normalizedQuery string, candidates []catalog.Candidate, ttl time.Duration) (*Entry, error) {
	now := s.clock.Now().UTC()
	e := &Entry{
		Query:           query,
		NormalizedQuery: normalizedQuery,
		Candidates:      candidates,
		ExpiresAt:       now.Add(ttl),
		CreatedAt:       now,
	}
	if err := s.Upsert(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Upsert writes an entry, replacing any existing entry for the same
// normalized query in a single statement.
func (s *Store) Upsert(ctx context.Context, e *Entry) error {
	candidates := e.Candidates
	if candidates == nil {
		candidates = []catalog.Candidate{}
	}
	payload, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("failed to encode candidates: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO match_cache (normalized_query, query, candidates, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(normalized_query) DO UPDATE SET
			query = excluded.query,
			candidates = excluded.candidates,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at`,
		e.NormalizedQuery, e.Query, string(payload), e.ExpiresAt.UnixMilli(), e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write match cache: %w", err)
	}
	return nil
}

// DeleteExpired removes every entry whose expiry has passed.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM match_cache WHERE expires_at <= ?`, s.clock.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired match cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted entries: %w", err)
	}
	return n, nil
}

// DeleteAll removes every entry.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM match_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear match cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted entries: %w", err)
	}
	return n, nil
}

// Stats counts live and expired entries.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN expires_at > ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0)
		FROM match_cache`,
		s.clock.Now().UnixMilli(), s.clock.Now().UnixMilli(),
	).Scan(&st.Live, &st.Expired)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read match cache stats: %w", err)
	}
	return st, nil
}
