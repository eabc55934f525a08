package matching

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Score returns the similarity of two titles in [0,1]. Both titles are
// normalized first, and a title that normalizes to nothing scores 0. The
// result is the best of several measures, each of which tolerates a
// different kind of noise (truncation, reordering, extra words).
func Score(query, candidate string) float64 {
	if query == "" || candidate == "" {
		return 0
	}

	a := Normalize(query)
	b := Normalize(candidate)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	best := levenshteinSimilarity(a, b)
	for _, measure := range []func(string, string) float64{
		indelRatio,
		partialRatio,
		TokenSortRatio,
		tokenSetRatio,
	} {
		if s := measure(a, b); s > best {
			best = s
		}
	}
	return clamp(best)
}

// AdjustForYear applies the release-year boost or penalty. Zero years are
// treated as unknown and leave the score untouched.
func AdjustForYear(score float64, queryYear, candidateYear int) float64 {
	if queryYear == 0 || candidateYear == 0 {
		return score
	}
	diff := queryYear - candidateYear
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return min(score+0.1, 1.0)
	case diff > 2:
		return score * 0.9
	default:
		return score
	}
}

func levenshteinSimilarity(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(edlib.LevenshteinDistance(a, b))/float64(maxLen)
}

// indelRatio is the normalized insertion/deletion similarity:
// 2*LCS / (len(a)+len(b)).
func indelRatio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(edlib.LCS(a, b)) / float64(total)
}

// partialRatio compares the shorter string against every same-length window
// of the longer one, plus the partial windows hanging off either end.
func partialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	switch {
	case len(ra) < len(rb):
		return windowedRatio(ra, rb)
	case len(ra) > len(rb):
		return windowedRatio(rb, ra)
	default:
		return max(windowedRatio(ra, rb), windowedRatio(rb, ra))
	}
}

func windowedRatio(short, long []rune) float64 {
	if len(short) == 0 {
		return 0
	}

	shortStr := string(short)
	best := 0.0
	consider := func(window []rune) bool {
		if s := indelRatio(shortStr, string(window)); s > best {
			best = s
		}
		return best >= 1
	}

	m, n := len(short), len(long)
	for i := 0; i+m <= n; i++ {
		if consider(long[i : i+m]) {
			return 1
		}
	}
	for k := 1; k < m && k <= n; k++ {
		if consider(long[:k]) || consider(long[n-k:]) {
			return 1
		}
	}
	return best
}

// TokenSortRatio compares the strings after sorting their words, so word
// order does not matter.
func TokenSortRatio(a, b string) float64 {
	return indelRatio(sortedTokens(a), sortedTokens(b))
}

// tokenSetRatio compares shared vocabulary, ignoring duplicated and extra
// words. A non-empty intersection where one side has nothing extra is a
// full match.
func tokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	var common, onlyA, onlyB []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	if len(common) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 1
	}

	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(common, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	best := indelRatio(combinedA, combinedB)
	if sect != "" {
		best = max(best, indelRatio(sect, combinedA), indelRatio(sect, combinedB))
	}
	return best
}

func sortedTokens(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, f := range strings.Fields(s) {
		set[f] = struct{}{}
	}
	return set
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
