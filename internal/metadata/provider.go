package metadata

import (
	"context"
	"fmt"
	"strconv"

	"github.com/snapshelf/snapshelf/internal/catalog"
	"github.com/snapshelf/snapshelf/internal/metadata/omdb"
)

// Provider is one external movie database the gateway fans out to.
// Details returns a provider-tagged record that has not been persisted.
type Provider interface {
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
	Search(ctx context.Context, query string, year int) ([]SearchHit, error)
	Details(ctx context.Context, id string) (*catalog.Movie, error)
}

// SearchHit is a provider search result before its detail lookup.
type SearchHit struct {
	ID    string
	Title string
	Year  int
}

// TMDBProvider adapts a TMDBClient to Provider.
type TMDBProvider struct {
	client TMDBClient
}

// NewTMDBProvider wraps client.
func NewTMDBProvider(client TMDBClient) *TMDBProvider {
	return &TMDBProvider{client: client}
}

func (p *TMDBProvider) Name() string                   { return "tmdb" }
func (p *TMDBProvider) IsConfigured() bool             { return p.client.IsConfigured() }
func (p *TMDBProvider) Test(ctx context.Context) error { return p.client.Test(ctx) }

func (p *TMDBProvider) Search(ctx context.Context, query string, year int) ([]SearchHit, error) {
	results, err := p.client.SearchMovies(ctx, query, year)
	if err != nil {
		return nil, err
	}
	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, SearchHit{ID: strconv.Itoa(r.ID), Title: r.Title, Year: r.Year})
	}
	return hits, nil
}

func (p *TMDBProvider) Details(ctx context.Context, id string) (*catalog.Movie, error) {
	tmdbID, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("invalid tmdb id %q: %w", id, err)
	}
	r, err := p.client.GetMovie(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	movie := &catalog.Movie{
		TMDBID:         int64(r.ID),
		IMDbID:         r.ImdbID,
		Title:          r.Title,
		Year:           r.Year,
		Genres:         r.Genres,
		Director:       r.Director,
		Cast:           r.Cast,
		Plot:           r.Overview,
		PosterURL:      r.PosterURL,
		Ratings:        map[string]float64{},
		RuntimeMinutes: r.Runtime,
		Studio:         r.Studio,
		Country:        r.Country,
		Language:       r.Language,
		Source:         p.Name(),
	}
	if r.VoteAverage > 0 {
		movie.Ratings["tmdb"] = r.VoteAverage
	}
	return movie, nil
}

// OMDBProvider adapts an OMDBClient to Provider.
type OMDBProvider struct {
	client OMDBClient
}

// NewOMDBProvider wraps client.
func NewOMDBProvider(client OMDBClient) *OMDBProvider {
	return &OMDBProvider{client: client}
}

func (p *OMDBProvider) Name() string                   { return "omdb" }
func (p *OMDBProvider) IsConfigured() bool             { return p.client.IsConfigured() }
func (p *OMDBProvider) Test(ctx context.Context) error { return p.client.Test(ctx) }

func (p *OMDBProvider) Search(ctx context.Context, query string, year int) ([]SearchHit, error) {
	results, err := p.client.SearchMovies(ctx, query, year)
	if err != nil {
		return nil, err
	}
	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		if r.ImdbID == "" {
			continue
		}
		hits = append(hits, SearchHit{ID: r.ImdbID, Title: r.Title, Year: omdb.ParseYear(r.Year)})
	}
	return hits, nil
}

func (p *OMDBProvider) Details(ctx context.Context, id string) (*catalog.Movie, error) {
	r, err := p.client.GetByIMDbID(ctx, id)
	if err != nil {
		return nil, err
	}
	ratings := r.Ratings
	if ratings == nil {
		ratings = map[string]float64{}
	}
	return &catalog.Movie{
		IMDbID:         r.ImdbID,
		Title:          r.Title,
		Year:           r.Year,
		Genres:         r.Genres,
		Director:       r.Director,
		Cast:           r.Cast,
		Plot:           r.Plot,
		PosterURL:      r.PosterURL,
		Ratings:        ratings,
		RuntimeMinutes: r.Runtime,
		ContentRating:  r.ContentRating,
		Studio:         r.Studio,
		Awards:         r.Awards,
		BoxOffice:      r.BoxOffice,
		Country:        r.Country,
		Language:       r.Language,
		Source:         p.Name(),
	}, nil
}

var (
	_ Provider = (*TMDBProvider)(nil)
	_ Provider = (*OMDBProvider)(nil)
)
