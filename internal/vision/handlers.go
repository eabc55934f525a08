package vision

import (
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/snapshelf/snapshelf/internal/metadata"
)

// MaxImageBytes bounds an uploaded photo.
const MaxImageBytes = 10 << 20

var supportedMediaTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Handlers provides HTTP handlers for photo title extraction.
type Handlers struct {
	service *Service
}

// NewHandlers creates new vision handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the vision routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.POST("/titles", h.ExtractTitles)
}

// ExtractTitles reads titles from an uploaded shelf photo.
// POST /api/v1/vision/titles?resolve=true (multipart field "image")
func (h *Handlers) ExtractTitles(c echo.Context) error {
	resolve := false
	if v := c.QueryParam("resolve"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid resolve flag")
		}
		resolve = b
	}

	image, mediaType, err := readImage(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if resolve {
		resolved, err := h.service.ExtractAndResolve(ctx, image, mediaType)
		if err != nil {
			return visionError(err)
		}
		return c.JSON(http.StatusOK, map[string]any{"titles": resolved, "total": len(resolved)})
	}

	titles, err := h.service.ExtractTitles(ctx, image, mediaType)
	if err != nil {
		return visionError(err)
	}
	if titles == nil {
		titles = []DetectedTitle{}
	}
	return c.JSON(http.StatusOK, map[string]any{"titles": titles, "total": len(titles)})
}

func readImage(c echo.Context) ([]byte, string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}
	if fh.Size > MaxImageBytes {
		return nil, "", echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image exceeds 10MB")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "failed to read image")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "failed to read image")
	}
	if len(data) > MaxImageBytes {
		return nil, "", echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image exceeds 10MB")
	}

	mediaType := http.DetectContentType(data)
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	if !slices.Contains(supportedMediaTypes, mediaType) {
		return nil, "", echo.NewHTTPError(http.StatusUnsupportedMediaType, "unsupported image type "+mediaType)
	}
	return data, mediaType, nil
}

func visionError(err error) error {
	switch {
	case errors.Is(err, ErrEmptyImage):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, metadata.ErrVisionUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
}
