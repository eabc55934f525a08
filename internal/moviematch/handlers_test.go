package moviematch

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapshelf/snapshelf/internal/api/validation"
	"github.com/snapshelf/snapshelf/internal/catalog"
	"github.com/snapshelf/snapshelf/internal/metadata"
)

type staticProviders []metadata.ProviderStatus

func (p staticProviders) Providers() []metadata.ProviderStatus { return p }

func newTestEcho(env *testEnv, providers ProviderLister) *echo.Echo {
	e := echo.New()
	e.Validator = validation.NewValidator()
	NewHandlers(env.svc, providers).RegisterRoutes(e.Group("/api/v1/movies"))
	return e
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandlers_Match(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, &catalog.Movie{Title: "Heat", Year: 1995})
	e := newTestEcho(env, nil)

	rec := doRequest(e, http.MethodPost, "/api/v1/movies/match", `{"title":"HEAT"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []struct {
			Movie           map[string]any `json:"movie"`
			ConfidenceScore float64        `json:"confidenceScore"`
			MatchType       string         `json:"matchType"`
		} `json:"data"`
		Cached      bool    `json:"cached"`
		QueryTimeMs float64 `json:"queryTimeMs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Heat", body.Data[0].Movie["title"])
	assert.Equal(t, "EXACT", body.Data[0].MatchType)
	assert.False(t, body.Cached)

	rec = doRequest(e, http.MethodPost, "/api/v1/movies/match", `{"title":"heat","year":1995}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlers_MatchErrors(t *testing.T) {
	env := newTestEnv(t)
	e := newTestEcho(env, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"blank title", `{"title":"   "}`, http.StatusBadRequest},
		{"missing title", `{}`, http.StatusBadRequest},
		{"year out of range", `{"title":"Heat","year":1200}`, http.StatusBadRequest},
		{"malformed body", `{"title":`, http.StatusBadRequest},
		{"no match", `{"title":"Nonexistent Picture"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(e, http.MethodPost, "/api/v1/movies/match", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHandlers_Suggestions(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t,
		&catalog.Movie{Title: "The Matrix", Year: 1999},
		&catalog.Movie{Title: "The Matrix Reloaded", Year: 2003},
	)
	e := newTestEcho(env, nil)

	rec := doRequest(e, http.MethodGet, "/api/v1/movies/suggestions?q=matrix&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Suggestions, 1)

	for _, target := range []string{
		"/api/v1/movies/suggestions?q=matrix&limit=0",
		"/api/v1/movies/suggestions?q=matrix&limit=21",
		"/api/v1/movies/suggestions?q=matrix&limit=abc",
	} {
		rec = doRequest(e, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandlers_ClearExpiredCacheAndHealth(t *testing.T) {
	env := newTestEnv(t, external("Heat", 1995, 949))
	e := newTestEcho(env, staticProviders{{Name: "tmdb", Configured: true, Priority: 0, Healthy: true}})

	env.svc.MatchTitle(t.Context(), "Heet", 0)
	env.clock.Advance(env.svc.cfg.CacheTTL())

	rec := doRequest(e, http.MethodGet, "/api/v1/movies/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.EqualValues(t, 1, health.Cache.Expired)
	require.Len(t, health.Providers, 1)
	assert.Equal(t, "tmdb", health.Providers[0].Name)

	rec = doRequest(e, http.MethodDelete, "/api/v1/movies/cache", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	stats, err := env.svc.CacheStats(t.Context())
	require.NoError(t, err)
	assert.Zero(t, stats.Expired)
}
