// Package catalog stores canonical movie metadata records.
package catalog

import (
	"maps"
	"slices"
	"time"

	"github.com/snapshelf/snapshelf/internal/matching"
)

// SourceLocal marks records authored locally rather than fetched.
const SourceLocal = "local"

// Movie is a canonical movie metadata record.
// NormalizedTitle is derived from Title by the store and never set directly.
type Movie struct {
	ID              string             `json:"id,omitempty"`
	TMDBID          int64              `json:"tmdbId,omitempty"`
	IMDbID          string             `json:"imdbId,omitempty"`
	Title           string             `json:"title"`
	NormalizedTitle string             `json:"normalizedTitle"`
	Year            int                `json:"releaseYear,omitempty"`
	Genres          []string           `json:"genres"`
	Director        string             `json:"director,omitempty"`
	Cast            []string           `json:"cast"`
	Plot            string             `json:"plot,omitempty"`
	PosterURL       string             `json:"posterUrl,omitempty"`
	Ratings         map[string]float64 `json:"ratings"`
	RuntimeMinutes  int                `json:"runtimeMinutes,omitempty"`
	ContentRating   string             `json:"contentRating,omitempty"`
	Studio          string             `json:"studio,omitempty"`
	Format          string             `json:"format,omitempty"`
	Language        string             `json:"language,omitempty"`
	Awards          string             `json:"awards,omitempty"`
	BoxOffice       string             `json:"boxOffice,omitempty"`
	Country         string             `json:"country,omitempty"`
	Source          string             `json:"source,omitempty"`
	CreatedAt       time.Time          `json:"createdAt,omitzero"`
	UpdatedAt       time.Time          `json:"updatedAt,omitzero"`
}

// MatchTitle implements matching.Titled.
func (m *Movie) MatchTitle() string {
	if m == nil {
		return ""
	}
	return m.Title
}

// MatchYear implements matching.Titled.
func (m *Movie) MatchYear() int {
	if m == nil {
		return 0
	}
	return m.Year
}

// Persisted reports whether the record has been assigned a store identifier.
func (m *Movie) Persisted() bool {
	return m.ID != ""
}

// Clone returns a deep copy of m.
func (m *Movie) Clone() *Movie {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Genres = slices.Clone(m.Genres)
	cp.Cast = slices.Clone(m.Cast)
	cp.Ratings = maps.Clone(m.Ratings)
	return &cp
}

// Enrich copies metadata from other into fields m leaves empty and reports
// whether anything changed. Identity, title, format and language are kept.
func (m *Movie) Enrich(other *Movie) bool {
	if m == nil || other == nil {
		return false
	}
	changed := false
	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}
	if m.TMDBID == 0 && other.TMDBID != 0 {
		m.TMDBID = other.TMDBID
		changed = true
	}
	if m.Year == 0 && other.Year != 0 {
		m.Year = other.Year
		changed = true
	}
	if m.RuntimeMinutes == 0 && other.RuntimeMinutes != 0 {
		m.RuntimeMinutes = other.RuntimeMinutes
		changed = true
	}
	if len(m.Genres) == 0 && len(other.Genres) > 0 {
		m.Genres = slices.Clone(other.Genres)
		changed = true
	}
	if len(m.Cast) == 0 && len(other.Cast) > 0 {
		m.Cast = slices.Clone(other.Cast)
		changed = true
	}
	for source, rating := range other.Ratings {
		if _, ok := m.Ratings[source]; ok {
			continue
		}
		if m.Ratings == nil {
			m.Ratings = make(map[string]float64, len(other.Ratings))
		}
		m.Ratings[source] = rating
		changed = true
	}
	fill(&m.IMDbID, other.IMDbID)
	fill(&m.Director, other.Director)
	fill(&m.Plot, other.Plot)
	fill(&m.PosterURL, other.PosterURL)
	fill(&m.ContentRating, other.ContentRating)
	fill(&m.Studio, other.Studio)
	fill(&m.Awards, other.Awards)
	fill(&m.BoxOffice, other.BoxOffice)
	fill(&m.Country, other.Country)
	return changed
}

// syncNormalized recomputes NormalizedTitle from Title.
func (m *Movie) syncNormalized() {
	m.NormalizedTitle = matching.Normalize(m.Title)
}

var _ matching.Titled = (*Movie)(nil)
