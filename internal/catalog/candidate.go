package catalog

import "github.com/snapshelf/snapshelf/internal/matching"

// Candidate is a scored movie returned by title resolution.
type Candidate struct {
	Movie     *Movie             `json:"movie"`
	Score     float64            `json:"confidenceScore"`
	MatchType matching.MatchType `json:"matchType"`
}

// CandidatesFromMatches converts engine output into candidates.
func CandidatesFromMatches(matches []matching.Match[*Movie]) []Candidate {
	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		out = append(out, Candidate{Movie: m.Candidate, Score: m.Score, MatchType: m.Type})
	}
	return out
}
