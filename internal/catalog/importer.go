package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// importRow is one line of a catalog seed CSV. List columns are
// pipe-separated.
type importRow struct {
	Title         string  `csv:"title"`
	Year          int     `csv:"year"`
	TMDBID        int64   `csv:"tmdb_id"`
	IMDbID        string  `csv:"imdb_id"`
	Director      string  `csv:"director"`
	Genres        string  `csv:"genres"`
	Cast          string  `csv:"cast"`
	Plot          string  `csv:"plot"`
	PosterURL     string  `csv:"poster_url"`
	Runtime       int     `csv:"runtime"`
	ContentRating string  `csv:"rated"`
	Studio        string  `csv:"studio"`
	Format        string  `csv:"format"`
	Language      string  `csv:"language"`
	Country       string  `csv:"country"`
	IMDbRating    float64 `csv:"imdb_rating"`
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Inserted int `json:"inserted"`
	Existing int `json:"existing"`
	Skipped  int `json:"skipped"`
}

// ImportCSV seeds the store from CSV. Rows without a title are skipped and
// rows matching an existing record are left untouched.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	var rows []*importRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return ImportResult{}, fmt.Errorf("failed to parse catalog CSV: %w", err)
	}

	var result ImportResult
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if strings.TrimSpace(row.Title) == "" {
			result.Skipped++
			continue
		}

		_, created, err := s.InsertIfAbsent(ctx, row.toMovie())
		if err != nil {
			return result, fmt.Errorf("failed to import %q: %w", row.Title, err)
		}
		if created {
			result.Inserted++
		} else {
			result.Existing++
		}
	}
	return result, nil
}

func (r *importRow) toMovie() *Movie {
	m := &Movie{
		TMDBID:         r.TMDBID,
		IMDbID:         strings.TrimSpace(r.IMDbID),
		Title:          strings.TrimSpace(r.Title),
		Year:           r.Year,
		Director:       strings.TrimSpace(r.Director),
		Genres:         splitList(r.Genres),
		Cast:           splitList(r.Cast),
		Plot:           r.Plot,
		PosterURL:      r.PosterURL,
		RuntimeMinutes: r.Runtime,
		ContentRating:  r.ContentRating,
		Studio:         r.Studio,
		Format:         r.Format,
		Language:       r.Language,
		Country:        r.Country,
		Ratings:        map[string]float64{},
		Source:         SourceLocal,
	}
	if r.IMDbRating > 0 {
		m.Ratings["imdb"] = r.IMDbRating
	}
	return m
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
