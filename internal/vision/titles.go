package vision

import (
	"encoding/json"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Confidence assigned to titles depending on how they were parsed.
const (
	ConfidenceStructured = 0.95
	ConfidenceFreeText   = 0.90
)

// maxFreeTextTitles caps line-by-line extraction.
const maxFreeTextTitles = 30

// duplicateSimilarity is the word-overlap ratio above which two titles
// are treated as the same spine.
const duplicateSimilarity = 0.8

var (
	jsonArrayPattern  = regexp.MustCompile(`\[[\s\S]*\]`)
	whitespacePattern = regexp.MustCompile(`[\s\p{Z}]+`)
	leadingThePattern = regexp.MustCompile(`(?i)^the\s+`)
	mediaSuffix       = regexp.MustCompile(`(?i)\s+(dvd|blu-?ray|4k|uhd)$`)
	digitsOnly        = regexp.MustCompile(`^\d+$`)
	singleLetter      = regexp.MustCompile(`^[A-Z]$`)
	studioFragment    = regexp.MustCompile(`CTURES$`)

	listMarker    = regexp.MustCompile(`^[-*•]\s*`)
	numberMarker  = regexp.MustCompile(`^\d+\.\s*`)
	quoteMarks    = regexp.MustCompile("^[\"'`]|[\"'`]$")
	startsTitle   = regexp.MustCompile(`(?i)^[a-z0-9]`)
	narrationLine = regexp.MustCompile(`(?i)^(section|total|count|technical|image|processing|visibility|expected|systematic|critical|here|the following|movies?|titles?|dvd|blu-?ray|collection|visible|spines?)`)
)

// DetectedTitle is a title read off a shelf photo.
type DetectedTitle struct {
	Title      string  `json:"title"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// ParseResponse extracts titles from a vision reply. A JSON string array
// anywhere in the reply is preferred; otherwise each line is treated as a
// candidate title.
func ParseResponse(reply, source string) []DetectedTitle {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil
	}

	if titles, ok := parseJSONArray(reply, source); ok {
		return titles
	}
	return parseLines(reply, source)
}

func parseJSONArray(reply, source string) ([]DetectedTitle, bool) {
	raw := reply
	if m := jsonArrayPattern.FindString(reply); m != "" {
		raw = m
	}

	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}

	var titles []DetectedTitle
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if cleaned := CleanTitle(s); ValidTitle(cleaned) {
			titles = append(titles, DetectedTitle{Title: cleaned, Confidence: ConfidenceStructured, Source: source})
		}
	}
	return titles, true
}

func parseLines(reply, source string) []DetectedTitle {
	var titles []DetectedTitle
	for line := range strings.SplitSeq(reply, "\n") {
		s := strings.TrimSpace(line)
		s = listMarker.ReplaceAllString(s, "")
		s = numberMarker.ReplaceAllString(s, "")
		s = strings.TrimSpace(quoteMarks.ReplaceAllString(s, ""))

		if len(s) < 2 || len(s) > 100 {
			continue
		}
		if narrationLine.MatchString(s) || strings.Contains(s, "JSON") || strings.ContainsAny(s, "[]") {
			continue
		}
		if !startsTitle.MatchString(s) {
			continue
		}

		if cleaned := CleanTitle(s); ValidTitle(cleaned) {
			titles = append(titles, DetectedTitle{Title: cleaned, Confidence: ConfidenceFreeText, Source: source})
		}
		if len(titles) == maxFreeTextTitles {
			break
		}
	}
	return titles
}

// CleanTitle collapses whitespace, drops a leading "The" and a trailing
// media marker, and title-cases the result.
func CleanTitle(s string) string {
	s = whitespacePattern.ReplaceAllString(strings.TrimSpace(s), " ")
	s = leadingThePattern.ReplaceAllString(s, "")
	s = mediaSuffix.ReplaceAllString(s, "")
	return strings.TrimSpace(cases.Title(language.Und).String(s))
}

// ValidTitle rejects strings that are unlikely to be movie titles.
func ValidTitle(s string) bool {
	if len(s) < 2 {
		return false
	}
	upper := strings.ToUpper(s)
	return !digitsOnly.MatchString(upper) &&
		!singleLetter.MatchString(upper) &&
		!studioFragment.MatchString(upper)
}

// Dedupe drops repeated and near-identical titles. When two titles collide
// the one with higher confidence is kept in the position of the first.
func Dedupe(titles []DetectedTitle) []DetectedTitle {
	unique := make([]DetectedTitle, 0, len(titles))
	for _, t := range titles {
		dup := false
		for i, existing := range unique {
			if wordSimilarity(t.Title, existing.Title) > duplicateSimilarity ||
				strings.EqualFold(t.Title, existing.Title) {
				if t.Confidence > existing.Confidence {
					unique[i] = t
				}
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, t)
		}
	}
	return unique
}

// wordSimilarity is the Jaccard index of the lowercased word sets.
func wordSimilarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	set := make(map[string]uint8, len(wordsA)+len(wordsB))
	for _, w := range wordsA {
		set[w] |= 1
	}
	for _, w := range wordsB {
		set[w] |= 2
	}
	var inter int
	for _, bits := range set {
		if bits == 3 {
			inter++
		}
	}
	return float64(inter) / float64(len(set))
}
