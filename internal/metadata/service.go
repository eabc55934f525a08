// Package metadata fans title lookups out to external movie databases and
// merges their answers into provider-tagged catalog records.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/snapshelf/snapshelf/internal/catalog"
	"github.com/snapshelf/snapshelf/internal/config"
	"github.com/snapshelf/snapshelf/internal/metadata/anthropic"
	"github.com/snapshelf/snapshelf/internal/metadata/mock"
	"github.com/snapshelf/snapshelf/internal/metadata/omdb"
	"github.com/snapshelf/snapshelf/internal/metadata/tmdb"
)

var (
	ErrNoProvidersConfigured = errors.New("no metadata providers configured")
	ErrUnknownProvider       = errors.New("unknown metadata provider")
	ErrVisionUnavailable     = errors.New("vision provider not configured")
)

const (
	healthCategoryMetadata = "metadata"
	healthCategoryVision   = "vision"

	// detailConcurrency caps in-flight detail fetches per provider.
	detailConcurrency = 4
)

// Options tunes the gateway independently of how providers are built.
type Options struct {
	// Priority lists provider names in dedup order. Unlisted providers follow
	// in registration order.
	Priority              []string
	ProviderTimeout       time.Duration
	MaxDetailsPerProvider int
	CacheTTL              time.Duration
}

// DefaultOptions returns the gateway defaults.
func DefaultOptions() Options {
	return Options{
		Priority:              []string{"tmdb", "omdb"},
		ProviderTimeout:       5 * time.Second,
		MaxDetailsPerProvider: 10,
		CacheTTL:              24 * time.Hour,
	}
}

// ProviderStatus describes one provider for the status endpoint.
type ProviderStatus struct {
	Name       string     `json:"name"`
	Configured bool       `json:"configured"`
	Priority   int        `json:"priority"`
	Healthy    bool       `json:"healthy"`
	LastError  string     `json:"lastError,omitempty"`
	CheckedAt  *time.Time `json:"checkedAt,omitempty"`
}

// Service is the external metadata gateway. It never writes to the catalog.
type Service struct {
	providers []Provider
	vision    VisionClient
	opts      Options
	cache     *Cache
	flight    singleflight.Group
	clock     clockwork.Clock
	logger    zerolog.Logger

	healthService HealthService
	mu            sync.RWMutex
	status        map[string]*ProviderStatus
}

// NewService creates a gateway backed by the real API clients, or by the
// offline fixtures when cfg.Metadata.UseMock is set.
func NewService(cfg *config.Config, logger zerolog.Logger, clock clockwork.Clock) *Service {
	var (
		tmdbClient TMDBClient
		omdbClient OMDBClient
	)
	if cfg.Metadata.UseMock {
		tmdbClient = mock.NewTMDBClient()
		omdbClient = mock.NewOMDBClient()
	} else {
		tmdbClient = tmdb.NewClient(cfg.Metadata.TMDB, logger)
		omdbClient = omdb.NewClient(cfg.Metadata.OMDB, logger)
	}

	opts := Options{
		Priority:              cfg.Matching.ProviderPriority,
		ProviderTimeout:       cfg.Matching.ProviderTimeout,
		MaxDetailsPerProvider: cfg.Metadata.MaxDetailsPerProvider,
		CacheTTL:              cfg.Metadata.DetailCacheTTL,
	}

	return NewServiceWithProviders(
		[]Provider{NewTMDBProvider(tmdbClient), NewOMDBProvider(omdbClient)},
		anthropic.NewClient(cfg.Metadata.Anthropic, logger),
		opts, logger, clock,
	)
}

// NewServiceWithProviders creates a gateway with custom providers (for testing/mocking).
// vision may be nil.
func NewServiceWithProviders(providers []Provider, vision VisionClient, opts Options, logger zerolog.Logger, clock clockwork.Clock) *Service {
	defaults := DefaultOptions()
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = defaults.ProviderTimeout
	}
	if opts.MaxDetailsPerProvider <= 0 {
		opts.MaxDetailsPerProvider = defaults.MaxDetailsPerProvider
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaults.CacheTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	ordered := orderProviders(providers, opts.Priority)
	status := make(map[string]*ProviderStatus, len(ordered))
	for i, p := range ordered {
		status[p.Name()] = &ProviderStatus{
			Name:       p.Name(),
			Configured: p.IsConfigured(),
			Priority:   i + 1,
			Healthy:    true,
		}
	}

	cacheCfg := DefaultCacheConfig()
	cacheCfg.TTL = opts.CacheTTL
	cacheCfg.Clock = clock

	return &Service{
		providers: ordered,
		vision:    vision,
		opts:      opts,
		cache:     NewCache(cacheCfg),
		clock:     clock,
		logger:    logger.With().Str("component", "metadata").Logger(),
		status:    status,
	}
}

// orderProviders sorts providers by their position in priority, keeping
// registration order for providers not named there.
func orderProviders(providers []Provider, priority []string) []Provider {
	rank := func(p Provider) int {
		if i := slices.Index(priority, p.Name()); i >= 0 {
			return i
		}
		return len(priority)
	}
	ordered := slices.Clone(providers)
	slices.SortStableFunc(ordered, func(a, b Provider) int {
		return rank(a) - rank(b)
	})
	return ordered
}

// SetHealthService sets the central health service for registration tracking.
func (s *Service) SetHealthService(hs HealthService) {
	s.healthService = hs
}

// RegisterProviders registers configured providers with the health service.
func (s *Service) RegisterProviders() {
	if s.healthService == nil {
		return
	}
	for _, p := range s.configured() {
		s.healthService.RegisterItemStr(healthCategoryMetadata, p.Name(), strings.ToUpper(p.Name()))
	}
	if s.vision != nil && s.vision.IsConfigured() {
		s.healthService.RegisterItemStr(healthCategoryVision, s.vision.Name(), s.vision.Name())
	}
}

// Providers returns the status of every registered provider in priority order.
func (s *Service) Providers() []ProviderStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ProviderStatus, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, *s.status[p.Name()])
	}
	return out
}

// HasConfiguredProvider reports whether at least one provider can be queried.
func (s *Service) HasConfiguredProvider() bool {
	return len(s.configured()) > 0
}

func (s *Service) configured() []Provider {
	active := make([]Provider, 0, len(s.providers))
	for _, p := range s.providers {
		if p.IsConfigured() {
			active = append(active, p)
		}
	}
	return active
}

// SearchAllSources queries every configured provider concurrently and returns
// the deduplicated union of their records. A failing provider contributes
// nothing; if all fail the result is empty. Provider calls are detached from
// ctx cancellation so an abandoned request still warms the cache. The search
// and each detail fetch are bounded by the provider timeout separately.
func (s *Service) SearchAllSources(ctx context.Context, query string, year int) []*catalog.Movie {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	active := s.configured()
	if len(active) == 0 {
		s.logger.Debug().Str("query", query).Msg("No metadata providers configured")
		return nil
	}

	base := context.WithoutCancel(ctx)
	perProvider := make([][]*catalog.Movie, len(active))

	var g errgroup.Group
	for i, p := range active {
		g.Go(func() error {
			movies, err := s.searchProvider(base, p, query, year)
			if err != nil {
				s.logger.Warn().Err(err).
					Str("provider", p.Name()).
					Str("query", query).
					Int("year", year).
					Msg("Provider search failed")
				s.recordFailure(p.Name(), err)
				return nil
			}
			s.recordSuccess(p.Name())
			perProvider[i] = movies
			return nil
		})
	}
	_ = g.Wait()

	merged := dedupe(perProvider)
	s.logger.Debug().
		Str("query", query).
		Int("year", year).
		Int("providers", len(active)).
		Int("results", len(merged)).
		Msg("Searched external sources")
	return merged
}

// dedupe merges provider result lists in priority order. The first record
// seen for a (lowercased title, year) key wins. Records are cloned so callers
// cannot mutate cached values.
func dedupe(perProvider [][]*catalog.Movie) []*catalog.Movie {
	seen := make(map[string]struct{})
	var merged []*catalog.Movie
	for _, movies := range perProvider {
		for _, m := range movies {
			if m == nil || strings.TrimSpace(m.Title) == "" {
				continue
			}
			key := strings.ToLower(m.Title) + "_" + strconv.Itoa(m.Year)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, m.Clone())
		}
	}
	return merged
}

// searchProvider returns the provider's detailed results, from cache when
// possible. Concurrent identical lookups share one upstream call. Only a
// failed search fails the provider; hits whose details fail are skipped, and
// a list missing timed-out details is returned but not cached.
func (s *Service) searchProvider(ctx context.Context, p Provider, query string, year int) ([]*catalog.Movie, error) {
	key := cacheKey(p.Name(), "search", strings.ToLower(query), strconv.Itoa(year))
	if movies, ok := s.cache.GetMovies(key); ok {
		s.logger.Debug().Str("provider", p.Name()).Str("query", query).Msg("Returning cached search results")
		return movies, nil
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		sctx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
		hits, err := p.Search(sctx, query, year)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}

		movies, complete := s.detailsFor(ctx, p, hits)
		if complete {
			s.cache.Set(key, movies)
		} else {
			s.logger.Debug().
				Str("provider", p.Name()).
				Str("query", query).
				Int("results", len(movies)).
				Msg("Returning partial results after detail timeouts")
		}
		return movies, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*catalog.Movie), nil
}

// detailsFor fetches details for hits in order until MaxDetailsPerProvider
// records are collected. Each round fetches just enough hits to fill the
// remaining slots, concurrently and each under its own timeout. complete is
// false when any fetch timed out.
func (s *Service) detailsFor(ctx context.Context, p Provider, hits []SearchHit) (movies []*catalog.Movie, complete bool) {
	limit := s.opts.MaxDetailsPerProvider
	movies = make([]*catalog.Movie, 0, min(len(hits), limit))
	complete = true

	for len(hits) > 0 && len(movies) < limit {
		batch := hits[:min(len(hits), limit-len(movies))]
		hits = hits[len(batch):]

		fetched := make([]*catalog.Movie, len(batch))
		timedOut := make([]bool, len(batch))
		var g errgroup.Group
		g.SetLimit(detailConcurrency)
		for i, hit := range batch {
			g.Go(func() error {
				dctx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
				defer cancel()

				movie, err := s.details(dctx, p, hit.ID)
				if err != nil {
					timedOut[i] = dctx.Err() != nil
					s.logger.Debug().Err(err).
						Str("provider", p.Name()).
						Str("id", hit.ID).
						Msg("Skipping result without details")
					return nil
				}
				fetched[i] = movie
				return nil
			})
		}
		_ = g.Wait()

		for i, movie := range fetched {
			if timedOut[i] {
				complete = false
			}
			if movie != nil {
				movies = append(movies, movie)
			}
		}
	}
	return movies, complete
}

func (s *Service) details(ctx context.Context, p Provider, id string) (*catalog.Movie, error) {
	key := cacheKey(p.Name(), "details", id)
	if movie, ok := s.cache.GetMovie(key); ok {
		return movie, nil
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		movie, err := p.Details(ctx, id)
		if err != nil {
			return nil, err
		}
		if movie == nil || strings.TrimSpace(movie.Title) == "" {
			return nil, fmt.Errorf("empty record for %s", id)
		}
		movie.Source = p.Name()
		s.cache.Set(key, movie)
		return movie, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*catalog.Movie), nil
}

func cacheKey(provider, endpoint string, parts ...string) string {
	return provider + ":" + endpoint + ":" + strings.Join(parts, ":")
}

// AnalyzeImage sends a shelf photo and prompt to the vision provider and
// returns its text reply.
func (s *Service) AnalyzeImage(ctx context.Context, image []byte, mediaType, prompt string) (string, error) {
	if s.vision == nil || !s.vision.IsConfigured() {
		return "", ErrVisionUnavailable
	}

	text, err := s.vision.Analyze(ctx, image, mediaType, prompt)
	if err != nil {
		s.logger.Warn().Err(err).Str("provider", s.vision.Name()).Msg("Vision call failed")
		if s.healthService != nil {
			s.healthService.SetErrorStr(healthCategoryVision, s.vision.Name(), err.Error())
		}
		return "", fmt.Errorf("vision %s: %w", s.vision.Name(), err)
	}
	if s.healthService != nil {
		s.healthService.ClearStatusStr(healthCategoryVision, s.vision.Name())
	}
	return text, nil
}

// TestProvider checks connectivity of the named provider and records the outcome.
func (s *Service) TestProvider(ctx context.Context, name string) error {
	if s.vision != nil && name == s.vision.Name() {
		if !s.vision.IsConfigured() {
			return ErrVisionUnavailable
		}
		return nil
	}

	idx := slices.IndexFunc(s.providers, func(p Provider) bool { return p.Name() == name })
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	p := s.providers[idx]
	if !p.IsConfigured() {
		return fmt.Errorf("%s: not configured", name)
	}

	pctx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
	defer cancel()
	if err := p.Test(pctx); err != nil {
		s.recordFailure(name, err)
		return err
	}
	s.recordSuccess(name)
	return nil
}

// TestProviders checks every configured provider. The returned error joins
// each provider failure.
func (s *Service) TestProviders(ctx context.Context) error {
	active := s.configured()
	if len(active) == 0 {
		return ErrNoProvidersConfigured
	}

	var errs []error
	for _, p := range active {
		if err := s.TestProvider(ctx, p.Name()); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// ClearCache drops every cached search and detail result.
func (s *Service) ClearCache() int {
	n := s.cache.Clear()
	s.logger.Info().Int("entries", n).Msg("Cleared metadata cache")
	return n
}

// PurgeExpiredCache drops cached results whose TTL has passed.
func (s *Service) PurgeExpiredCache() int {
	return s.cache.Purge()
}

// CacheLen returns the number of cached entries.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}

func (s *Service) recordFailure(name string, err error) {
	now := s.clock.Now()
	s.mu.Lock()
	if st, ok := s.status[name]; ok {
		st.Healthy = false
		st.LastError = err.Error()
		st.CheckedAt = &now
	}
	s.mu.Unlock()

	if s.healthService != nil {
		s.healthService.SetErrorStr(healthCategoryMetadata, name, err.Error())
	}
}

func (s *Service) recordSuccess(name string) {
	now := s.clock.Now()
	s.mu.Lock()
	if st, ok := s.status[name]; ok {
		st.Healthy = true
		st.LastError = ""
		st.CheckedAt = &now
	}
	s.mu.Unlock()

	if s.healthService != nil {
		s.healthService.ClearStatusStr(healthCategoryMetadata, name)
	}
}
