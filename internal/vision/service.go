// Package vision reads movie titles off photos of physical media shelves.
package vision

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/snapshelf/snapshelf/internal/moviematch"
)

// Prompt instructs the vision model to list spine titles as a JSON array.
const Prompt = `This photo shows a stack or shelf of DVD, Blu-ray or 4K movie cases.
Read the movie title printed on every visible spine, working from one end of the stack to the other.

- Report the main title only. Leave out format badges (DVD, Blu-ray, 4K Ultra HD), studio names, ratings and taglines.
- Include spines that are rotated, partly hidden or cut off at the edge of the photo, using your best reading.
- Report only text you can actually see. Do not guess titles that are not visible.

Reply with a JSON array of strings and nothing else, for example:
["TITLE ONE", "TITLE TWO"]`

// resolveConcurrency bounds concurrent title resolutions per photo.
const resolveConcurrency = 4

// ErrEmptyImage is returned when no image bytes were supplied.
var ErrEmptyImage = errors.New("image is empty")

// Analyzer sends an image and prompt to a vision-capable model.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, image []byte, mediaType, prompt string) (string, error)
}

// Resolver resolves a title against the movie catalog.
type Resolver interface {
	MatchTitle(ctx context.Context, query string, year int) moviematch.MatchResponse
}

// ResolvedTitle pairs a detected title with its catalog matches.
type ResolvedTitle struct {
	DetectedTitle
	Match *moviematch.MatchResponse `json:"match,omitempty"`
}

// Service extracts titles from shelf photos.
type Service struct {
	analyzer Analyzer
	resolver Resolver
	source   string
	logger   zerolog.Logger
}

// NewService creates a new title extraction service. source labels detected
// titles with the vision provider name.
func NewService(analyzer Analyzer, resolver Resolver, source string, logger zerolog.Logger) *Service {
	return &Service{
		analyzer: analyzer,
		resolver: resolver,
		source:   source,
		logger:   logger.With().Str("component", "vision").Logger(),
	}
}

// ExtractTitles returns the distinct titles visible in image.
func (s *Service) ExtractTitles(ctx context.Context, image []byte, mediaType string) ([]DetectedTitle, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	reply, err := s.analyzer.AnalyzeImage(ctx, image, mediaType, Prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze image: %w", err)
	}

	titles := Dedupe(ParseResponse(reply, s.source))
	s.logger.Info().
		Int("bytes", len(image)).
		Int("titles", len(titles)).
		Msg("Extracted titles from photo")
	return titles, nil
}

// ExtractAndResolve extracts titles and resolves each one.
func (s *Service) ExtractAndResolve(ctx context.Context, image []byte, mediaType string) ([]ResolvedTitle, error) {
	titles, err := s.ExtractTitles(ctx, image, mediaType)
	if err != nil {
		return nil, err
	}

	resolved := make([]ResolvedTitle, len(titles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, t := range titles {
		resolved[i].DetectedTitle = t
		if s.resolver == nil {
			continue
		}
		g.Go(func() error {
			resp := s.resolver.MatchTitle(gctx, t.Title, 0)
			resolved[i].Match = &resp
			return nil
		})
	}
	_ = g.Wait()
	return resolved, nil
}
