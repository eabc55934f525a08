package metadata

import (
	"context"

	"github.com/snapshelf/snapshelf/internal/metadata/omdb"
	"github.com/snapshelf/snapshelf/internal/metadata/tmdb"
)

// TMDBClient defines the interface for TMDB API operations.
type TMDBClient interface {
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
	SearchMovies(ctx context.Context, query string, year int) ([]tmdb.NormalizedMovieResult, error)
	GetMovie(ctx context.Context, id int) (*tmdb.NormalizedMovieResult, error)
}

// OMDBClient defines the interface for OMDb API operations.
type OMDBClient interface {
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
	SearchMovies(ctx context.Context, query string, year int) ([]omdb.SearchResult, error)
	GetByIMDbID(ctx context.Context, imdbID string) (*omdb.NormalizedMovie, error)
}

// VisionClient sends an image plus a prompt to a vision-capable model.
type VisionClient interface {
	Name() string
	IsConfigured() bool
	Analyze(ctx context.Context, image []byte, mediaType, prompt string) (string, error)
}

// HealthService is the interface for central health tracking.
type HealthService interface {
	RegisterItemStr(category, id, name string)
	SetErrorStr(category, id, message string)
	ClearStatusStr(category, id string)
}
