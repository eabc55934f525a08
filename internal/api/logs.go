package api

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
)

// LogsHandlers handles log-related HTTP endpoints.
type LogsHandlers struct {
	logPath string
}

// NewLogsHandlers creates a new logs handlers instance. An empty path means
// logging goes to the console only.
func NewLogsHandlers(logPath string) *LogsHandlers {
	return &LogsHandlers{logPath: logPath}
}

// RegisterRoutes registers log routes on the given group.
func (h *LogsHandlers) RegisterRoutes(g *echo.Group) {
	g.GET("/download", h.DownloadLogFile)
}

// DownloadLogFile serves the current log file for download.
// GET /api/v1/logs/download
func (h *LogsHandlers) DownloadLogFile(c echo.Context) error {
	if h.logPath == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no log file configured")
	}

	if _, err := os.Stat(h.logPath); os.IsNotExist(err) {
		return echo.NewHTTPError(http.StatusNotFound, "log file not found")
	}

	return c.Attachment(h.logPath, "snapshelf.log")
}
