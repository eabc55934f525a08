package metadata

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEcho(svc *Service) *echo.Echo {
	e := echo.New()
	NewHandlers(svc).RegisterRoutes(e.Group("/api/v1/metadata"))
	return e
}

func TestHandlers_Search(t *testing.T) {
	svc := newTestService(newFakeProvider("tmdb", movie("Heat", 1995, "")))
	e := newTestEcho(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metadata/search?query=Heat&year=1995", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Heat", body[0]["title"])
	assert.Equal(t, "tmdb", body[0]["source"])

	for _, target := range []string{
		"/api/v1/metadata/search",
		"/api/v1/metadata/search?query=Heat&year=abc",
	} {
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandlers_ClearCacheAndProviders(t *testing.T) {
	svc := newTestService(newFakeProvider("tmdb", movie("Heat", 1995, "")), newFakeProvider("omdb"))
	e := newTestEcho(svc)

	svc.SearchAllSources(t.Context(), "Heat", 0)
	require.NotZero(t, svc.CacheLen())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/metadata/cache", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, svc.CacheLen())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metadata/providers", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var statuses []ProviderStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statuses))
	require.Len(t, statuses, 2)
	assert.Equal(t, "tmdb", statuses[0].Name)
	assert.True(t, statuses[0].Configured)
}
