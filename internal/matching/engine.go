package matching

import (
	"slices"
	"strings"
)

// MatchType classifies a candidate by confidence band.
type MatchType string

const (
	MatchExact   MatchType = "EXACT"
	MatchFuzzy   MatchType = "FUZZY"
	MatchPartial MatchType = "PARTIAL"
	MatchNone    MatchType = "NONE"
)

// DefaultLimit is the number of matches returned when no limit is given.
const DefaultLimit = 10

// Titled is anything that can be matched by title and release year.
// A zero year means the year is unknown.
type Titled interface {
	MatchTitle() string
	MatchYear() int
}

// Match is a scored candidate.
type Match[T Titled] struct {
	Candidate T
	Score     float64
	Type      MatchType
}

// Thresholds are the confidence bands used when ranking candidates.
type Thresholds struct {
	// Floor excludes candidates scoring below it.
	Floor float64
	Fuzzy float64
	Exact float64
	// Suggestion is the looser cut-off for SuggestCorrections.
	Suggestion float64
}

// DefaultThresholds returns the stock confidence bands.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Floor:      0.7,
		Fuzzy:      0.8,
		Exact:      0.95,
		Suggestion: 0.6,
	}
}

// Engine ranks candidates of type T against a query title.
type Engine[T Titled] struct {
	thresholds Thresholds
}

// NewEngine creates an engine with the given thresholds.
func NewEngine[T Titled](thresholds Thresholds) *Engine[T] {
	return &Engine[T]{thresholds: thresholds}
}

// Classify maps a score onto a match type. Scores below the floor are NONE.
func (e *Engine[T]) Classify(score float64) MatchType {
	switch {
	case score >= e.thresholds.Exact:
		return MatchExact
	case score >= e.thresholds.Fuzzy:
		return MatchFuzzy
	case score >= e.thresholds.Floor:
		return MatchPartial
	default:
		return MatchNone
	}
}

// FindMatches scores every candidate against the query and returns those at
// or above the floor, best first, at most limit entries. A year embedded in
// the query adjusts each score against the candidate's release year.
func (e *Engine[T]) FindMatches(query string, candidates []T, limit int) []Match[T] {
	return e.FindMatchesWithYear(query, 0, candidates, limit)
}

// FindMatchesWithYear is FindMatches with a fallback year used when the query
// text carries none.
func (e *Engine[T]) FindMatchesWithYear(query string, yearHint int, candidates []T, limit int) []Match[T] {
	if strings.TrimSpace(query) == "" || len(candidates) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	cleaned, queryYear := ExtractYear(query)
	if queryYear == 0 {
		queryYear = yearHint
	}

	matches := make([]Match[T], 0, len(candidates))
	for _, candidate := range candidates {
		title := candidate.MatchTitle()
		if strings.TrimSpace(title) == "" {
			continue
		}

		score := AdjustForYear(Score(cleaned, title), queryYear, candidate.MatchYear())
		if score < e.thresholds.Floor {
			continue
		}

		matches = append(matches, Match[T]{
			Candidate: candidate,
			Score:     score,
			Type:      e.Classify(score),
		})
	}

	slices.SortStableFunc(matches, func(a, b Match[T]) int {
		return compareScoreDesc(a.Score, b.Score)
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// FindBestMatch returns the top match, or a zero-score NONE match when no
// candidate clears the floor.
func (e *Engine[T]) FindBestMatch(query string, candidates []T) Match[T] {
	matches := e.FindMatches(query, candidates, 1)
	if len(matches) == 0 {
		return Match[T]{Score: 0, Type: MatchNone}
	}
	return matches[0]
}

// SuggestCorrections ranks candidate titles by word-order-insensitive
// similarity and returns up to max titles above the suggestion threshold.
// Titles are returned once each, best first.
func (e *Engine[T]) SuggestCorrections(query string, candidates []T, maxSuggestions int) []string {
	if strings.TrimSpace(query) == "" || len(candidates) == 0 || maxSuggestions <= 0 {
		return nil
	}

	type scored struct {
		title string
		score float64
	}

	normalizedQuery := Normalize(query)
	seen := make(map[string]struct{}, len(candidates))
	ranked := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		title := candidate.MatchTitle()
		if strings.TrimSpace(title) == "" {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}

		score := TokenSortRatio(normalizedQuery, Normalize(title))
		if score > e.thresholds.Suggestion {
			ranked = append(ranked, scored{title: title, score: score})
		}
	}

	slices.SortStableFunc(ranked, func(a, b scored) int {
		return compareScoreDesc(a.score, b.score)
	})

	if len(ranked) > maxSuggestions {
		ranked = ranked[:maxSuggestions]
	}
	titles := make([]string, len(ranked))
	for i, r := range ranked {
		titles[i] = r.title
	}
	return titles
}

func compareScoreDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
