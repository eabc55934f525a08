package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapshelf/snapshelf/internal/catalog"
	"github.com/snapshelf/snapshelf/internal/metadata"
	"github.com/snapshelf/snapshelf/internal/moviematch"
	"github.com/snapshelf/snapshelf/internal/testutil"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeAnalyzer struct {
	reply     string
	err       error
	mediaType string
	prompt    string
}

func (a *fakeAnalyzer) AnalyzeImage(ctx context.Context, image []byte, mediaType, prompt string) (string, error) {
	a.mediaType = mediaType
	a.prompt = prompt
	return a.reply, a.err
}

type fakeResolver struct {
	mu      sync.Mutex
	queries []string
}

func (r *fakeResolver) MatchTitle(ctx context.Context, query string, year int) moviematch.MatchResponse {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	r.mu.Unlock()
	return moviematch.MatchResponse{
		Data: []catalog.Candidate{{Movie: &catalog.Movie{ID: "id-" + query, Title: query}, Score: 1}},
	}
}

func TestService_ExtractTitles(t *testing.T) {
	analyzer := &fakeAnalyzer{reply: `["HEAT", "heat", "THE MATRIX BLU-RAY"]`}
	svc := NewService(analyzer, nil, "anthropic", testutil.NewTestLogger(t))

	titles, err := svc.ExtractTitles(t.Context(), pngHeader, "image/png")
	require.NoError(t, err)

	assert.Equal(t, []DetectedTitle{
		{Title: "Heat", Confidence: ConfidenceStructured, Source: "anthropic"},
		{Title: "Matrix", Confidence: ConfidenceStructured, Source: "anthropic"},
	}, titles)
	assert.Equal(t, "image/png", analyzer.mediaType)
	assert.Equal(t, Prompt, analyzer.prompt)
}

func TestService_ExtractTitlesErrors(t *testing.T) {
	svc := NewService(&fakeAnalyzer{err: metadata.ErrVisionUnavailable}, nil, "anthropic", testutil.NopLogger())

	_, err := svc.ExtractTitles(t.Context(), pngHeader, "image/png")
	assert.ErrorIs(t, err, metadata.ErrVisionUnavailable)

	_, err = svc.ExtractTitles(t.Context(), nil, "image/png")
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestService_ExtractAndResolve(t *testing.T) {
	resolver := &fakeResolver{}
	svc := NewService(&fakeAnalyzer{reply: `["HEAT", "INCEPTION", "DUNE"]`}, resolver, "anthropic", testutil.NopLogger())

	resolved, err := svc.ExtractAndResolve(t.Context(), pngHeader, "image/png")
	require.NoError(t, err)

	require.Len(t, resolved, 3)
	assert.ElementsMatch(t, []string{"Heat", "Inception", "Dune"}, resolver.queries)
	for _, r := range resolved {
		require.NotNil(t, r.Match, r.Title)
		assert.Equal(t, "id-"+r.Title, r.Match.Data[0].Movie.ID)
	}
	assert.Equal(t, "Heat", resolved[0].Title)
}

func newMultipartRequest(t *testing.T, target string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if image != nil {
		part, err := w.CreateFormFile("image", "shelf.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestHandlers_ExtractTitles(t *testing.T) {
	resolver := &fakeResolver{}
	svc := NewService(&fakeAnalyzer{reply: `["HEAT"]`}, resolver, "anthropic", testutil.NopLogger())
	e := echo.New()
	NewHandlers(svc).RegisterRoutes(e.Group("/api/v1/vision"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, newMultipartRequest(t, "/api/v1/vision/titles", pngHeader))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Titles []ResolvedTitle `json:"titles"`
		Total  int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)
	assert.Equal(t, "Heat", body.Titles[0].Title)
	assert.Nil(t, body.Titles[0].Match)
	assert.Empty(t, resolver.queries)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, newMultipartRequest(t, "/api/v1/vision/titles?resolve=true", pngHeader))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Titles[0].Match)
	assert.Equal(t, "id-Heat", body.Titles[0].Match.Data[0].Movie.ID)
}

func TestHandlers_ExtractTitlesErrors(t *testing.T) {
	tests := []struct {
		name     string
		analyzer *fakeAnalyzer
		target   string
		image    []byte
		want     int
	}{
		{"missing file", &fakeAnalyzer{}, "/api/v1/vision/titles", nil, http.StatusBadRequest},
		{"bad resolve flag", &fakeAnalyzer{}, "/api/v1/vision/titles?resolve=maybe", pngHeader, http.StatusBadRequest},
		{"not an image", &fakeAnalyzer{}, "/api/v1/vision/titles", []byte("plain text"), http.StatusUnsupportedMediaType},
		{"vision unavailable", &fakeAnalyzer{err: metadata.ErrVisionUnavailable}, "/api/v1/vision/titles", pngHeader, http.StatusServiceUnavailable},
		{"vision failed", &fakeAnalyzer{err: assert.AnError}, "/api/v1/vision/titles", pngHeader, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			NewHandlers(NewService(tt.analyzer, nil, "anthropic", testutil.NopLogger())).RegisterRoutes(e.Group("/api/v1/vision"))

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, newMultipartRequest(t, tt.target, tt.image))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}
