package mock

import (
	"context"
	"maps"
	"strconv"

	"github.com/snapshelf/snapshelf/internal/metadata/omdb"
)

// OMDBClient is a mock implementation of the OMDb client. It serves the same
// fixtures as TMDBClient, keyed by IMDb ID.
type OMDBClient struct{}

// NewOMDBClient creates a new mock OMDb client.
func NewOMDBClient() *OMDBClient {
	return &OMDBClient{}
}

func (c *OMDBClient) Name() string {
	return "omdb-mock"
}

func (c *OMDBClient) IsConfigured() bool {
	return true
}

func (c *OMDBClient) Test(ctx context.Context) error {
	return nil
}

func (c *OMDBClient) SearchMovies(ctx context.Context, query string, year int) ([]omdb.SearchResult, error) {
	var results []omdb.SearchResult
	for i := range mockMovies {
		movie := &mockMovies[i]
		if year != 0 && movie.Year != year {
			continue
		}
		if fixtureMatches(query, movie.Title) {
			results = append(results, omdb.SearchResult{
				Title:  movie.Title,
				Year:   strconv.Itoa(movie.Year),
				ImdbID: movie.ImdbID,
				Type:   "movie",
				Poster: movie.PosterURL,
			})
		}
	}
	return results, nil
}

func (c *OMDBClient) GetByIMDbID(ctx context.Context, imdbID string) (*omdb.NormalizedMovie, error) {
	for i := range mockMovies {
		movie := &mockMovies[i]
		if movie.ImdbID != imdbID {
			continue
		}
		extra, ok := mockExtras[imdbID]
		if !ok {
			extra = defaultExtras
		}
		return &omdb.NormalizedMovie{
			ImdbID:        movie.ImdbID,
			Title:         movie.Title,
			Year:          movie.Year,
			Genres:        movie.Genres,
			Director:      movie.Director,
			Cast:          movie.Cast,
			Plot:          movie.Overview,
			PosterURL:     movie.PosterURL,
			Ratings:       maps.Clone(extra.ratings),
			Runtime:       movie.Runtime,
			ContentRating: extra.rated,
			Awards:        extra.awards,
			BoxOffice:     extra.boxOffice,
			Country:       "United States",
			Language:      movie.Language,
			Studio:        movie.Studio,
		}, nil
	}
	return nil, omdb.ErrNotFound
}

type omdbExtras struct {
	ratings   map[string]float64
	rated     string
	awards    string
	boxOffice string
}

var defaultExtras = omdbExtras{
	ratings: map[string]float64{"imdb": 8.0, "rottenTomatoes": 85, "metacritic": 75},
	rated:   "PG-13",
	awards:  "Nominated for 1 Oscar",
}

var mockExtras = map[string]omdbExtras{
	"tt0113277": { // Heat
		ratings:   map[string]float64{"imdb": 8.3, "rottenTomatoes": 83, "metacritic": 76},
		rated:     "R",
		awards:    "14 nominations total",
		boxOffice: "$67,436,818",
	},
	"tt0240772": { // Ocean's Eleven (2001)
		ratings:   map[string]float64{"imdb": 7.7, "rottenTomatoes": 83, "metacritic": 74},
		rated:     "PG-13",
		awards:    "4 wins & 12 nominations total",
		boxOffice: "$183,417,150",
	},
	"tt0133093": { // The Matrix
		ratings: map[string]float64{"imdb": 8.7, "rottenTomatoes": 83, "metacritic": 73},
		rated:   "R",
		awards:  "Won 4 Oscars. 42 wins & 52 nominations total",
	},
	"tt0137523": { // Fight Club
		ratings: map[string]float64{"imdb": 8.8, "rottenTomatoes": 79, "metacritic": 66},
		rated:   "R",
		awards:  "Nominated for 1 Oscar. 11 wins & 38 nominations total",
	},
	"tt0110912": { // Pulp Fiction
		ratings: map[string]float64{"imdb": 8.9, "rottenTomatoes": 92, "metacritic": 95},
		rated:   "R",
		awards:  "Won 1 Oscar. 70 wins & 75 nominations total",
	},
	"tt0468569": { // The Dark Knight
		ratings: map[string]float64{"imdb": 9.0, "rottenTomatoes": 94, "metacritic": 84},
		rated:   "PG-13",
		awards:  "Won 2 Oscars. 159 wins & 163 nominations total",
	},
	"tt0111161": { // The Shawshank Redemption
		ratings: map[string]float64{"imdb": 9.3, "rottenTomatoes": 90, "metacritic": 82},
		rated:   "R",
		awards:  "Nominated for 7 Oscars. 21 wins & 43 nominations total",
	},
	"tt0068646": { // The Godfather
		ratings: map[string]float64{"imdb": 9.2, "rottenTomatoes": 97, "metacritic": 100},
		rated:   "R",
		awards:  "Won 3 Oscars. 31 wins & 30 nominations total",
	},
}
