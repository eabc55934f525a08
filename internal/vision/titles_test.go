package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"THE  DARK   KNIGHT", "Dark Knight"},
		{"INCEPTION BLU-RAY", "Inception"},
		{"interstellar bluray", "Interstellar"},
		{"DUNE PART TWO 4K", "Dune Part Two"},
		{"Oppenheimer UHD", "Oppenheimer"},
		{"  heat dvd  ", "Heat"},
		{"Spider-Man", "Spider-Man"},
		{"Theodore Rex", "Theodore Rex"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanTitle(tt.in))
		})
	}
}

func TestValidTitle(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Heat", true},
		{"Up", true},
		{"Se7en", true},
		{"", false},
		{"X", false},
		{"1917", false},
		{"42", false},
		{"Pictures", false},
		{"COLUMBIA PICTURES", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidTitle(tt.in))
		})
	}
}

func TestParseResponse_JSONArray(t *testing.T) {
	reply := "Here are the titles I can read:\n" +
		`["THE MATRIX", "HEAT DVD", "42", "", 7, "COLUMBIA PICTURES"]`

	got := ParseResponse(reply, "anthropic")

	assert.Equal(t, []DetectedTitle{
		{Title: "Matrix", Confidence: ConfidenceStructured, Source: "anthropic"},
		{Title: "Heat", Confidence: ConfidenceStructured, Source: "anthropic"},
	}, got)
}

func TestParseResponse_FreeText(t *testing.T) {
	reply := "Here are the titles:\n" +
		"1. THE MATRIX\n" +
		"- Heat\n" +
		"* \"Inception\"\n" +
		"\n" +
		"Total: 3 titles"

	got := ParseResponse(reply, "anthropic")

	assert.Equal(t, []DetectedTitle{
		{Title: "Matrix", Confidence: ConfidenceFreeText, Source: "anthropic"},
		{Title: "Heat", Confidence: ConfidenceFreeText, Source: "anthropic"},
		{Title: "Inception", Confidence: ConfidenceFreeText, Source: "anthropic"},
	}, got)
}

func TestParseResponse_Empty(t *testing.T) {
	assert.Empty(t, ParseResponse("   ", "anthropic"))
	assert.Empty(t, ParseResponse("[]", "anthropic"))
}

func TestDedupe(t *testing.T) {
	titles := []DetectedTitle{
		{Title: "Heat", Confidence: ConfidenceFreeText, Source: "a"},
		{Title: "Dark Knight", Confidence: ConfidenceFreeText, Source: "a"},
		{Title: "HEAT", Confidence: ConfidenceStructured, Source: "b"},
		{Title: "Dark Knight Rises", Confidence: ConfidenceStructured, Source: "b"},
		{Title: "dark knight", Confidence: ConfidenceFreeText, Source: "b"},
	}

	got := Dedupe(titles)

	assert.Equal(t, []DetectedTitle{
		{Title: "HEAT", Confidence: ConfidenceStructured, Source: "b"},
		{Title: "Dark Knight", Confidence: ConfidenceFreeText, Source: "a"},
		{Title: "Dark Knight Rises", Confidence: ConfidenceStructured, Source: "b"},
	}, got)
}

func TestWordSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, wordSimilarity("The Matrix", "the matrix"), 1e-9)
	assert.InDelta(t, 2.0/3.0, wordSimilarity("Dark Knight", "Dark Knight Rises"), 1e-9)
	assert.Zero(t, wordSimilarity("Heat", ""))
	assert.Zero(t, wordSimilarity("Heat", "Inception"))
}
