package batch

import (
	"strings"

	"places-workers/internal/models"
)

// SplitLines returns the non-blank lines of text in order. Lines are kept as
// entered apart from a trailing carriage return.
func SplitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// BuildTerms returns the cross product of cities and keyword groups with
// cities as the outer loop.
func BuildTerms(cities, keywordGroups []string) []models.SearchTerm {
	terms := make([]models.SearchTerm, 0, len(cities)*len(keywordGroups))
	for _, city := range cities {
		for _, keywords := range keywordGroups {
			terms = append(terms, models.SearchTerm{City: city, Keywords: keywords})
		}
	}
	return terms
}
