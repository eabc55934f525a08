package metadata

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for metadata operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates new metadata handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the metadata routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/search", h.Search)
	g.DELETE("/cache", h.ClearCache)
	g.GET("/providers", h.GetProviders)
}

// Search runs the provider fan-out directly, bypassing the local catalog.
// GET /api/v1/metadata/search?query=...&year=...
func (h *Handlers) Search(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("query"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter is required")
	}

	year := 0
	if yearStr := c.QueryParam("year"); yearStr != "" {
		y, err := strconv.Atoi(yearStr)
		if err != nil || y < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid year")
		}
		year = y
	}

	return c.JSON(http.StatusOK, h.service.SearchAllSources(c.Request().Context(), query, year))
}

// ClearCache clears the metadata cache.
// DELETE /api/v1/metadata/cache
func (h *Handlers) ClearCache(c echo.Context) error {
	h.service.ClearCache()
	return c.NoContent(http.StatusNoContent)
}

// GetProviders returns provider configuration and health.
// GET /api/v1/metadata/providers
func (h *Handlers) GetProviders(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Providers())
}
