package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/snapshelf/snapshelf/internal/config"
)

var (
	ErrAPIKeyMissing = errors.New("OMDb API key is not configured")
	ErrNotFound      = errors.New("not found on OMDb")
	ErrAPIError      = errors.New("OMDb API error")
	ErrRateLimited   = errors.New("OMDb API rate limited")
)

// notAvailable is OMDb's placeholder for missing fields.
const notAvailable = "N/A"

// Client is an OMDb API client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	config     config.OMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new OMDb client.
func NewClient(cfg config.OMDBConfig, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = max(1, int(cfg.RequestsPerSecond))
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		config:     cfg,
		logger:     logger.With().Str("component", "omdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "omdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Test verifies connectivity to the OMDb API.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}

	_, err := c.GetByIMDbID(ctx, "tt0133093") // The Matrix
	return err
}

// SearchMovies searches movie titles with an optional year filter.
// No results is not an error.
func (c *Client) SearchMovies(ctx context.Context, query string, year int) ([]SearchResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	params := url.Values{}
	params.Set("s", query)
	params.Set("type", "movie")
	if year > 0 {
		params.Set("y", strconv.Itoa(year))
	}

	var resp SearchResponse
	if err := c.doRequest(ctx, params, &resp); err != nil {
		return nil, err
	}

	if resp.Response == "False" {
		if resp.Error == "Movie not found!" {
			return []SearchResult{}, nil
		}
		c.logger.Warn().Str("error", resp.Error).Str("query", query).Msg("OMDb search returned error")
		return nil, fmt.Errorf("%w: %s", ErrAPIError, resp.Error)
	}

	c.logger.Debug().
		Str("query", query).
		Int("year", year).
		Int("results", len(resp.Search)).
		Msg("Movie search completed")

	return resp.Search, nil
}

// GetByIMDbID fetches the full record for a title by IMDb ID.
func (c *Client) GetByIMDbID(ctx context.Context, imdbID string) (*NormalizedMovie, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	if imdbID == "" {
		return nil, ErrNotFound
	}

	params := url.Values{}
	params.Set("i", imdbID)
	params.Set("plot", "full")

	var omdbResp Response
	if err := c.doRequest(ctx, params, &omdbResp); err != nil {
		return nil, err
	}

	if omdbResp.Response == "False" {
		if omdbResp.Error == "Movie not found!" || omdbResp.Error == "Incorrect IMDb ID." {
			return nil, ErrNotFound
		}
		c.logger.Warn().Str("error", omdbResp.Error).Str("imdbId", imdbID).Msg("OMDb API returned error")
		return nil, fmt.Errorf("%w: %s", ErrAPIError, omdbResp.Error)
	}

	return c.normalize(omdbResp), nil
}

func (c *Client) doRequest(ctx context.Context, params url.Values, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}

	params.Set("apikey", c.config.APIKey)
	reqURL := fmt.Sprintf("%s?%s", c.config.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: invalid API key", ErrAPIError)
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// normalize converts an OMDb response to the provider-neutral shape.
func (c *Client) normalize(resp Response) *NormalizedMovie {
	result := &NormalizedMovie{
		ImdbID:        resp.ImdbID,
		Title:         resp.Title,
		Year:          ParseYear(resp.Year),
		Genres:        splitList(resp.Genre),
		Director:      firstOf(resp.Director),
		Cast:          splitList(resp.Actors),
		Plot:          clean(resp.Plot),
		PosterURL:     clean(resp.Poster),
		Ratings:       map[string]float64{},
		Runtime:       parseRuntime(resp.Runtime),
		ContentRating: clean(resp.Rated),
		Awards:        clean(resp.Awards),
		BoxOffice:     clean(resp.BoxOffice),
		Country:       firstOf(resp.Country),
		Language:      firstOf(resp.Language),
		Studio:        clean(resp.Production),
	}

	if rating, err := strconv.ParseFloat(clean(resp.ImdbRating), 64); err == nil {
		result.Ratings["imdb"] = rating
	}
	if score, err := strconv.ParseFloat(clean(resp.Metascore), 64); err == nil {
		result.Ratings["metacritic"] = score
	}
	for _, rating := range resp.Ratings {
		if rating.Source == "Rotten Tomatoes" {
			// Format: "92%"
			if score, err := strconv.ParseFloat(strings.TrimSuffix(rating.Value, "%"), 64); err == nil {
				result.Ratings["rottenTomatoes"] = score
			}
		}
	}

	c.logger.Debug().
		Str("imdbId", resp.ImdbID).
		Str("title", resp.Title).
		Msg("Normalized OMDb title")

	return result
}

// ParseYear reads the leading four-digit year of an OMDb year field
// such as "1995" or "2008–2013".
func ParseYear(s string) int {
	s = clean(s)
	if len(s) < 4 {
		return 0
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0
	}
	return year
}

// parseRuntime reads "136 min" as 136.
func parseRuntime(s string) int {
	fields := strings.Fields(clean(s))
	if len(fields) == 0 {
		return 0
	}
	minutes, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return minutes
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	if s == notAvailable {
		return ""
	}
	return s
}

func splitList(s string) []string {
	s = clean(s)
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstOf(s string) string {
	list := splitList(s)
	if len(list) == 0 {
		return ""
	}
	return list[0]
}
