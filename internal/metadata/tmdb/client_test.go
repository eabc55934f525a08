package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/snapshelf/snapshelf/internal/config"
)

func newTestClient(server *httptest.Server) *Client {
	cfg := config.TMDBConfig{
		APIKey:       "test-api-key",
		BaseURL:      server.URL,
		ImageBaseURL: "https://image.tmdb.org/t/p",
		Timeout:      5 * time.Second,
	}
	return NewClient(cfg, zerolog.Nop())
}

func strPtr(s string) *string { return &s }

func TestClient_Name(t *testing.T) {
	client := NewClient(config.TMDBConfig{}, zerolog.Nop())
	if client.Name() != "tmdb" {
		t.Errorf("Name() = %q, want %q", client.Name(), "tmdb")
	}
}

func TestClient_IsConfigured(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		want   bool
	}{
		{"with key", "abc123", true},
		{"without key", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(config.TMDBConfig{APIKey: tt.apiKey}, zerolog.Nop())
			if got := client.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_SearchMovies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "Heat" {
			t.Errorf("unexpected query: %s", got)
		}
		if got := r.URL.Query().Get("year"); got != "1995" {
			t.Errorf("unexpected year: %s", got)
		}
		if got := r.URL.Query().Get("api_key"); got != "test-api-key" {
			t.Errorf("unexpected api key: %s", got)
		}

		json.NewEncoder(w).Encode(SearchMoviesResponse{
			Page: 1,
			Results: []MovieResult{
				{ID: 949, Title: "Heat", ReleaseDate: "1995-12-15", PosterPath: strPtr("/heat.jpg"), VoteAverage: 7.9},
				{ID: 1, Title: "Heat Wave", ReleaseDate: ""},
			},
			TotalResults: 2,
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	results, err := client.SearchMovies(context.Background(), "Heat", 1995)
	if err != nil {
		t.Fatalf("SearchMovies() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("SearchMovies() returned %d results, want 2", len(results))
	}
	if results[0].ID != 949 || results[0].Year != 1995 {
		t.Errorf("results[0] = %+v, want id 949 year 1995", results[0])
	}
	if results[0].PosterURL != "https://image.tmdb.org/t/p/w500/heat.jpg" {
		t.Errorf("PosterURL = %q", results[0].PosterURL)
	}
	if results[1].Year != 0 {
		t.Errorf("results[1].Year = %d, want 0", results[1].Year)
	}
}

func TestClient_SearchMovies_NoAPIKey(t *testing.T) {
	client := NewClient(config.TMDBConfig{}, zerolog.Nop())
	_, err := client.SearchMovies(context.Background(), "Heat", 0)
	if !errors.Is(err, ErrAPIKeyMissing) {
		t.Errorf("SearchMovies() error = %v, want %v", err, ErrAPIKeyMissing)
	}
}

func TestClient_GetMovie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/949" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("append_to_response"); got != "credits" {
			t.Errorf("append_to_response = %q, want credits", got)
		}

		cast := make([]CastMember, 12)
		for i := range cast {
			cast[i] = CastMember{ID: i, Name: fmt.Sprintf("Actor %d", i), Order: i}
		}

		json.NewEncoder(w).Encode(MovieDetails{
			ID:                  949,
			Title:               "Heat",
			ReleaseDate:         "1995-12-15",
			Overview:            "Obsessive master thief...",
			PosterPath:          strPtr("/heat.jpg"),
			Runtime:             170,
			ImdbID:              "tt0113277",
			VoteAverage:         7.9,
			Genres:              []Genre{{ID: 80, Name: "Crime"}, {ID: 18, Name: "Drama"}},
			ProductionCompanies: []ProductionCompany{{ID: 1, Name: "Regency Enterprises"}, {ID: 2, Name: "Forward Pass"}},
			ProductionCountries: []ProductionCountry{{ISO31661: "US", Name: "United States of America"}},
			SpokenLanguages:     []SpokenLanguage{{ISO6391: "en", EnglishName: "English"}},
			Credits: &Credits{
				Cast: cast,
				Crew: []CrewMember{
					{Name: "Art Linson", Job: "Producer"},
					{Name: "Michael Mann", Job: "Director"},
					{Name: "Someone Else", Job: "Director"},
				},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	result, err := client.GetMovie(context.Background(), 949)
	if err != nil {
		t.Fatalf("GetMovie() error = %v", err)
	}

	if result.Director != "Michael Mann" {
		t.Errorf("Director = %q, want %q", result.Director, "Michael Mann")
	}
	if len(result.Cast) != maxCastMembers {
		t.Errorf("len(Cast) = %d, want %d", len(result.Cast), maxCastMembers)
	}
	if result.Studio != "Regency Enterprises" {
		t.Errorf("Studio = %q", result.Studio)
	}
	if result.Country != "United States of America" {
		t.Errorf("Country = %q", result.Country)
	}
	if result.Language != "English" {
		t.Errorf("Language = %q", result.Language)
	}
	if result.Runtime != 170 || result.ImdbID != "tt0113277" || result.Year != 1995 {
		t.Errorf("GetMovie() = %+v", result)
	}
	if len(result.Genres) != 2 || result.Genres[0] != "Crime" {
		t.Errorf("Genres = %v", result.Genres)
	}
}

func TestClient_GetMovie_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ErrorResponse{StatusCode: 34, StatusMessage: "The resource you requested could not be found."})
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.GetMovie(context.Background(), 999999)
	if !errors.Is(err, ErrMovieNotFound) {
		t.Errorf("GetMovie() error = %v, want %v", err, ErrMovieNotFound)
	}
}

func TestClient_GetImageURL(t *testing.T) {
	client := NewClient(config.TMDBConfig{ImageBaseURL: "https://image.tmdb.org/t/p"}, zerolog.Nop())

	tests := []struct {
		path string
		size string
		want string
	}{
		{"/abc.jpg", "w500", "https://image.tmdb.org/t/p/w500/abc.jpg"},
		{"/xyz.png", "original", "https://image.tmdb.org/t/p/original/xyz.png"},
		{"", "w500", ""},
	}

	for _, tt := range tests {
		got := client.GetImageURL(tt.path, tt.size)
		if got != tt.want {
			t.Errorf("GetImageURL(%q, %q) = %q, want %q", tt.path, tt.size, got, tt.want)
		}
	}
}

func TestClient_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(ErrorResponse{
			StatusCode:    25,
			StatusMessage: "Your request count is over the allowed limit.",
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.SearchMovies(context.Background(), "test", 0)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("SearchMovies() error = %v, want %v", err, ErrRateLimited)
	}
}

func TestClient_LimiterHonoursContext(t *testing.T) {
	client := NewClient(config.TMDBConfig{
		APIKey:            "k",
		BaseURL:           "http://127.0.0.1:0",
		RequestsPerWindow: 1,
		Window:            time.Hour,
	}, zerolog.Nop())

	// drain the single token
	client.limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.SearchMovies(ctx, "test", 0)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("SearchMovies() error = %v, want %v", err, ErrRateLimited)
	}
}

func TestClient_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server)
	err := client.Test(context.Background())
	if !errors.Is(err, ErrAPIError) {
		t.Errorf("Test() error = %v, want %v", err, ErrAPIError)
	}
}
