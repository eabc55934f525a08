package health

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// TestFunc probes a single item by ID.
type TestFunc func(ctx context.Context, id string) error

// Handlers provides HTTP handlers for health endpoints.
type Handlers struct {
	health  *Service
	testers map[HealthCategory]TestFunc
}

// NewHandlers creates new health handlers. testers maps a category to the
// probe used by the test endpoints; categories without one cannot be tested.
func NewHandlers(health *Service, testers map[HealthCategory]TestFunc) *Handlers {
	return &Handlers{
		health:  health,
		testers: testers,
	}
}

// RegisterRoutes registers health routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetAll)
	g.GET("/summary", h.GetSummary)
	g.GET("/:category", h.GetByCategory)
	g.POST("/:category/test", h.TestCategory)
	g.POST("/:category/:id/test", h.TestItem)
}

// TestResult is the outcome of a manual probe.
type TestResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// GetAll returns all health items grouped by category.
// GET /api/v1/health
func (h *Handlers) GetAll(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetAll())
}

// GetSummary returns summary counts.
// GET /api/v1/health/summary
func (h *Handlers) GetSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetSummary())
}

// GetByCategory returns health items for a specific category.
// GET /api/v1/health/:category
func (h *Handlers) GetByCategory(c echo.Context) error {
	categoryStr := c.Param("category")
	if !ValidCategory(categoryStr) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid health category")
	}
	return c.JSON(http.StatusOK, h.health.GetByCategory(HealthCategory(categoryStr)))
}

// TestCategory tests all items in a category.
// POST /api/v1/health/:category/test
func (h *Handlers) TestCategory(c echo.Context) error {
	categoryStr := c.Param("category")
	if !ValidCategory(categoryStr) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid health category")
	}
	category := HealthCategory(categoryStr)

	items := h.health.GetByCategory(category)
	results := make([]TestResult, 0, len(items))
	// Sequential so a manual test never bursts an external rate limit.
	for _, item := range items {
		results = append(results, h.testSingleItem(c.Request().Context(), category, item.ID))
	}

	return c.JSON(http.StatusOK, map[string]any{
		"category": category,
		"results":  results,
	})
}

// TestItem tests a specific health item.
// POST /api/v1/health/:category/:id/test
func (h *Handlers) TestItem(c echo.Context) error {
	category := HealthCategory(c.Param("category"))
	id := c.Param("id")

	if h.health.GetItem(category, id) == nil {
		return echo.NewHTTPError(http.StatusNotFound, "health item not found")
	}

	return c.JSON(http.StatusOK, h.testSingleItem(c.Request().Context(), category, id))
}

func (h *Handlers) testSingleItem(ctx context.Context, category HealthCategory, id string) TestResult {
	result := TestResult{ID: id}

	test, ok := h.testers[category]
	if !ok || test == nil {
		result.Message = "testing not configured for " + string(category)
		return result
	}

	if err := test(ctx, id); err != nil {
		h.health.SetError(category, id, err.Error())
		result.Message = err.Error()
		return result
	}

	h.health.ClearStatus(category, id)
	result.Success = true
	result.Message = "Connection verified"
	return result
}
