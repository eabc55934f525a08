// Package matching resolves noisy movie titles against candidate records.
//
// Titles are first reduced to a comparison key by Normalize, scored pairwise
// with Score, and ranked by an Engine against configurable confidence bands.
package matching

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// leadingArticles are tried in order; at most one is removed per pass.
	leadingArticles = []string{"the ", "a ", "an "}

	// trailingSuffixes are disc and edition markers that carry no title identity.
	trailingSuffixes = []string{
		"the movie",
		"film",
		"dvd",
		"blu ray",
		"bluray",
		"4k",
		"uhd",
		"extended edition",
		"directors cut",
		"special edition",
		"remastered",
	}

	// RE2's \s is ASCII-only; \p{Z} adds no-break and other Unicode spaces.
	nonWordPattern    = regexp.MustCompile(`[^\p{L}\p{N}_\s\p{Z}]+`)
	whitespacePattern = regexp.MustCompile(`[\s\p{Z}]+`)
	yearPattern       = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

// Normalize reduces a title to its comparison key. The result is stable under
// repeated application.
func Normalize(title string) string {
	// every pass after the first only removes bytes, so len+2 passes suffice
	current := title
	for range len(title) + 2 {
		next := normalizeOnce(current)
		if next == current {
			return next
		}
		current = next
	}
	return current
}

func normalizeOnce(title string) string {
	s := collapseSpaces(strings.ToLower(title))

	for _, article := range leadingArticles {
		if strings.HasPrefix(s, article) {
			s = s[len(article):]
			break
		}
	}

	s = nonWordPattern.ReplaceAllString(s, "")
	s = collapseSpaces(s)

	for _, suffix := range trailingSuffixes {
		if strings.HasSuffix(s, " "+suffix) {
			s = strings.TrimSpace(s[:len(s)-len(suffix)-1])
			break
		}
	}

	return s
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// ExtractYear pulls the last 19xx/20xx year out of a title. The year is
// removed along with optional surrounding parentheses and whitespace. A zero
// year means none was found and the title is returned unchanged.
func ExtractYear(title string) (string, int) {
	matches := yearPattern.FindAllStringIndex(title, -1)
	if len(matches) == 0 {
		return title, 0
	}

	last := matches[len(matches)-1]
	year, err := strconv.Atoi(title[last[0]:last[1]])
	if err != nil {
		return title, 0
	}

	start, end := last[0], last[1]
	if start > 0 && title[start-1] == '(' {
		start--
	}
	if end < len(title) && title[end] == ')' {
		end++
	}
	for start > 0 && isSpace(title[start-1]) {
		start--
	}
	for end < len(title) && isSpace(title[end]) {
		end++
	}

	before := title[:start]
	after := title[end:]
	cleaned := before
	if before != "" && after != "" {
		cleaned += " "
	}
	cleaned += after

	return strings.TrimSpace(cleaned), year
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
