// Package moviematch resolves noisy movie titles against the local catalog,
// falling back to external metadata providers and caching every resolution.
package moviematch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/snapshelf/snapshelf/internal/catalog"
	"github.com/snapshelf/snapshelf/internal/config"
	"github.com/snapshelf/snapshelf/internal/matchcache"
	"github.com/snapshelf/snapshelf/internal/matching"
)

// DefaultSuggestionLimit is used when a caller passes a non-positive limit.
const DefaultSuggestionLimit = 5

// Catalog is the local canonical movie store.
type Catalog interface {
	List(ctx context.Context) ([]*catalog.Movie, error)
	SearchTitles(ctx context.Context, substr string, limit int) ([]string, error)
	InsertIfAbsent(ctx context.Context, m *catalog.Movie) (*catalog.Movie, bool, error)
	Update(ctx context.Context, m *catalog.Movie) error
}

// MatchCache stores resolved candidate lists by normalized query.
type MatchCache interface {
	Get(ctx context.Context, normalizedQuery string) (*matchcache.Entry, error)
	Put(ctx context.Context, query, normalizedQuery string, candidates []catalog.Candidate, ttl time.Duration) (*matchcache.Entry, error)
	DeleteExpired(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (matchcache.Stats, error)
}

// Gateway searches external metadata providers.
type Gateway interface {
	SearchAllSources(ctx context.Context, query string, year int) []*catalog.Movie
}

// MatchResponse is the result of a title resolution.
type MatchResponse struct {
	Data        []catalog.Candidate `json:"data"`
	Cached      bool                `json:"cached"`
	QueryTimeMs float64             `json:"queryTimeMs"`
}

// Path records which stage of resolution produced a response.
type Path string

const (
	PathCache    Path = "cache"
	PathLocal    Path = "local"
	PathExternal Path = "external"
	PathFailed   Path = "failed"
)

// Service is the match resolution orchestrator.
type Service struct {
	catalog Catalog
	cache   MatchCache
	gateway Gateway
	engine  *matching.Engine[*catalog.Movie]
	cfg     config.MatchingConfig
	clock   clockwork.Clock
	logger  zerolog.Logger
}

// NewService creates a new match resolution service.
func NewService(store Catalog, cache MatchCache, gateway Gateway, cfg config.MatchingConfig, logger zerolog.Logger, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = matching.DefaultLimit
	}
	return &Service{
		catalog: store,
		cache:   cache,
		gateway: gateway,
		engine: matching.NewEngine[*catalog.Movie](matching.Thresholds{
			Floor:      cfg.ConfidenceFloor,
			Fuzzy:      cfg.FuzzyThreshold,
			Exact:      cfg.ExactThreshold,
			Suggestion: cfg.SuggestionThreshold,
		}),
		cfg:    cfg,
		clock:  clock,
		logger: logger.With().Str("component", "moviematch").Logger(),
	}
}

// CacheKey returns the normalized key a query and optional year hint are
// cached under. A hint is folded in only when the query carries no year.
func CacheKey(query string, yearHint int) string {
	if yearHint > 0 {
		if _, year := matching.ExtractYear(query); year == 0 {
			query = query + " " + strconv.Itoa(yearHint)
		}
	}
	return matching.Normalize(query)
}

// MatchTitle resolves a title to ranked candidates. It never fails: storage
// errors are logged and produce an empty, uncached response. Work continues
// if ctx is cancelled so external results still get persisted and cached.
func (s *Service) MatchTitle(ctx context.Context, query string, year int) MatchResponse {
	start := s.clock.Now()
	ctx = context.WithoutCancel(ctx)

	candidates, path, err := s.resolve(ctx, query, year)

	elapsed := s.clock.Since(start)
	resp := MatchResponse{
		Data:        candidates,
		Cached:      path == PathCache,
		QueryTimeMs: float64(elapsed.Microseconds()) / 1000,
	}
	if err != nil {
		s.logger.Error().Err(err).
			Str("query", query).
			Int("year", year).
			Msg("Title resolution failed")
		resp.Data = []catalog.Candidate{}
		resp.Cached = false
		path = PathFailed
	}
	if resp.Data == nil {
		resp.Data = []catalog.Candidate{}
	}

	s.logger.Info().
		Str("query", query).
		Str("path", string(path)).
		Int("candidates", len(resp.Data)).
		Float64("elapsedMs", resp.QueryTimeMs).
		Msg("Resolved title")
	return resp
}

func (s *Service) resolve(ctx context.Context, query string, year int) ([]catalog.Candidate, Path, error) {
	query = strings.TrimSpace(query)
	key := CacheKey(query, year)
	if key == "" {
		return nil, PathLocal, nil
	}

	entry, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		return entry.Candidates, PathCache, nil
	case !errors.Is(err, matchcache.ErrNotFound):
		return nil, PathFailed, fmt.Errorf("cache lookup: %w", err)
	}

	local, err := s.catalog.List(ctx)
	if err != nil {
		return nil, PathFailed, fmt.Errorf("local search: %w", err)
	}
	localMatches := s.engine.FindMatchesWithYear(query, year, local, s.cfg.MaxResults)

	if len(localMatches) > 0 && localMatches[0].Score >= s.cfg.LocalSufficiency {
		candidates := catalog.CandidatesFromMatches(localMatches)
		if err := s.store(ctx, query, key, candidates); err != nil {
			return nil, PathFailed, err
		}
		return candidates, PathLocal, nil
	}

	searchTitle, searchYear := matching.ExtractYear(query)
	if searchYear == 0 {
		searchYear = year
	}
	external := s.gateway.SearchAllSources(ctx, searchTitle, searchYear)
	externalMatches := s.engine.FindMatchesWithYear(query, year, external, s.cfg.MaxResults)

	merged := s.merge(catalog.CandidatesFromMatches(localMatches), catalog.CandidatesFromMatches(externalMatches))

	merged, err = s.persistNew(ctx, merged)
	if err != nil {
		return nil, PathFailed, err
	}
	if err := s.store(ctx, query, key, merged); err != nil {
		return nil, PathFailed, err
	}
	return merged, PathExternal, nil
}

// merge concatenates local then external candidates, keeps the first of each
// (lowercased title, year) pair, and returns the best MaxResults by score.
func (s *Service) merge(local, external []catalog.Candidate) []catalog.Candidate {
	seen := make(map[string]struct{}, len(local)+len(external))
	merged := make([]catalog.Candidate, 0, len(local)+len(external))
	for _, c := range slices.Concat(local, external) {
		if c.Movie == nil {
			continue
		}
		key := strings.ToLower(c.Movie.Title) + "_" + strconv.Itoa(c.Movie.Year)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, c)
	}

	slices.SortStableFunc(merged, func(a, b catalog.Candidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if len(merged) > s.cfg.MaxResults {
		merged = merged[:s.cfg.MaxResults]
	}
	return merged
}

// persistNew stores every not-yet-persisted candidate so each returned
// candidate carries a catalog ID. A candidate that resolves to an existing
// record fills that record's empty fields and is returned as the stored
// record. Candidates sharing a catalog ID collapse to the best-scored one.
func (s *Service) persistNew(ctx context.Context, candidates []catalog.Candidate) ([]catalog.Candidate, error) {
	resolved := make(map[string]*catalog.Movie, len(candidates))
	for i := range candidates {
		movie := candidates[i].Movie
		if movie.Persisted() {
			continue
		}
		if movie.Format == "" {
			movie.Format = s.cfg.DefaultFormat
		}
		if movie.Language == "" {
			movie.Language = s.cfg.DefaultLanguage
		}

		stored, created, err := s.catalog.InsertIfAbsent(ctx, movie)
		if err != nil {
			return nil, fmt.Errorf("persist %q: %w", movie.Title, err)
		}
		if created {
			s.logger.Info().
				Str("id", stored.ID).
				Str("title", stored.Title).
				Int("year", stored.Year).
				Str("source", movie.Source).
				Msg("Stored new movie")
		} else if stored.Enrich(movie) {
			if err := s.catalog.Update(ctx, stored); err != nil {
				s.logger.Warn().Err(err).Str("id", stored.ID).Msg("Failed to enrich stored movie")
			} else {
				s.logger.Info().
					Str("id", stored.ID).
					Str("title", stored.Title).
					Str("source", movie.Source).
					Msg("Enriched stored movie")
			}
		}
		resolved[stored.ID] = stored
		candidates[i].Movie = stored
	}

	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if stored, ok := resolved[c.Movie.ID]; ok {
			c.Movie = stored
		}
		if _, dup := seen[c.Movie.ID]; dup {
			continue
		}
		seen[c.Movie.ID] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

func (s *Service) store(ctx context.Context, query, key string, candidates []catalog.Candidate) error {
	if _, err := s.cache.Put(ctx, query, key, candidates, s.cfg.CacheTTL()); err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}

// GetSuggestions returns up to limit local titles for autocomplete. Substring
// matches come first; fuzzy suggestions fill any remaining slots.
func (s *Service) GetSuggestions(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	suggestions, err := s.catalog.SearchTitles(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search titles: %w", err)
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	if len(suggestions) >= limit {
		return suggestions[:limit], nil
	}

	all, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	for _, title := range s.engine.SuggestCorrections(query, all, limit) {
		if len(suggestions) >= limit {
			break
		}
		if !slices.Contains(suggestions, title) {
			suggestions = append(suggestions, title)
		}
	}
	return suggestions, nil
}

// ClearExpiredCache deletes match cache entries past their expiry.
func (s *Service) ClearExpiredCache(ctx context.Context) (int64, error) {
	n, err := s.cache.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired cache: %w", err)
	}
	s.logger.Info().Int64("removed", n).Msg("Cleared expired match cache entries")
	return n, nil
}

// ClearCache deletes every match cache entry.
func (s *Service) ClearCache(ctx context.Context) (int64, error) {
	n, err := s.cache.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	s.logger.Info().Int64("removed", n).Msg("Cleared match cache")
	return n, nil
}

// CacheStats reports live and expired match cache entries.
func (s *Service) CacheStats(ctx context.Context) (matchcache.Stats, error) {
	return s.cache.Stats(ctx)
}
