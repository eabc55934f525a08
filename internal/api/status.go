package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/snapshelf/snapshelf/internal/config"
)

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// getStatus reports the version, catalog size and cache state.
// GET /api/v1/status
func (s *Server) getStatus(c echo.Context) error {
	ctx := c.Request().Context()

	movieCount, err := s.catalogStore.Count(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to count catalog movies")
	}
	cacheStats, err := s.matchCache.Stats(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read match cache stats")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"version":       config.Version,
		"startTime":     s.started.Format(time.RFC3339),
		"movieCount":    movieCount,
		"matchCache":    cacheStats,
		"metadataCache": s.metadataService.CacheLen(),
		"providers":     s.metadataService.Providers(),
		"health":        s.healthService.GetSummary(),
	})
}
