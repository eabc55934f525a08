package moviematch

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/snapshelf/snapshelf/internal/matchcache"
	"github.com/snapshelf/snapshelf/internal/metadata"
)

const maxSuggestionLimit = 20

// ProviderLister reports external provider status for the health endpoint.
type ProviderLister interface {
	Providers() []metadata.ProviderStatus
}

// Handlers provides HTTP handlers for title resolution.
type Handlers struct {
	service   *Service
	providers ProviderLister
}

// NewHandlers creates new match handlers. providers may be nil.
func NewHandlers(service *Service, providers ProviderLister) *Handlers {
	return &Handlers{service: service, providers: providers}
}

// RegisterRoutes registers the match routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.POST("/match", h.Match)
	g.GET("/suggestions", h.Suggestions)
	g.DELETE("/cache", h.ClearExpiredCache)
	g.GET("/health", h.Health)
}

// MatchRequest is the body of a match request.
type MatchRequest struct {
	Title string `json:"title" validate:"notblank,max=500"`
	Year  int    `json:"year" validate:"omitempty,gte=1870,lte=2100"`
}

// Match resolves a title to ranked candidates.
// POST /api/v1/movies/match
func (h *Handlers) Match(c echo.Context) error {
	var req MatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	resp := h.service.MatchTitle(c.Request().Context(), req.Title, req.Year)
	if len(resp.Data) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "no matching movies found")
	}
	return c.JSON(http.StatusOK, resp)
}

// Suggestions returns autocomplete titles from the local catalog.
// GET /api/v1/movies/suggestions?q=...&limit=...
func (h *Handlers) Suggestions(c echo.Context) error {
	limit := DefaultSuggestionLimit
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 || l > maxSuggestionLimit {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 20")
		}
		limit = l
	}

	suggestions, err := h.service.GetSuggestions(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"suggestions": suggestions})
}

// ClearExpiredCache sweeps expired match cache entries.
// DELETE /api/v1/movies/cache
func (h *Handlers) ClearExpiredCache(c echo.Context) error {
	if _, err := h.service.ClearExpiredCache(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// HealthResponse summarizes cache and provider state.
type HealthResponse struct {
	Status    string                    `json:"status"`
	Cache     matchcache.Stats          `json:"cache"`
	Providers []metadata.ProviderStatus `json:"providers"`
}

// Health reports match cache statistics and provider status.
// GET /api/v1/movies/health
func (h *Handlers) Health(c echo.Context) error {
	stats, err := h.service.CacheStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Providers: []metadata.ProviderStatus{}})
	}

	resp := HealthResponse{Status: "ok", Cache: stats, Providers: []metadata.ProviderStatus{}}
	if h.providers != nil {
		resp.Providers = h.providers.Providers()
	}
	return c.JSON(http.StatusOK, resp)
}
