package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// wordBonus is added to a candidate's score for every meaningful query word
// found in its title. Scores may exceed 1.0; only their ordering matters.
const wordBonus = 0.1

// minBonusWordLen is the length a query word must exceed to earn wordBonus.
const minBonusWordLen = 2

// BestMatch returns the index of the title that best matches query, or -1
// if titles is empty. Empty titles are never scored. When no title scores
// above zero the first candidate is returned.
func BestMatch(query string, titles []string) int {
	if len(titles) == 0 {
		return -1
	}
	if len(titles) == 1 {
		return 0
	}

	normalized := normalizeQuery(query)
	words := strings.Fields(normalized)

	best := -1
	highest := 0.0
	for i, title := range titles {
		if title == "" {
			continue
		}
		score := matchScore(normalized, words, strings.ToLower(title))
		if score > highest {
			highest = score
			best = i
		}
	}

	if best < 0 {
		return 0
	}
	return best
}

// normalizeQuery lowercases query and strips a "<word>search:" prefix.
func normalizeQuery(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	if prefix, rest, ok := strings.Cut(q, ":"); ok && strings.HasSuffix(prefix, "search") {
		q = strings.TrimSpace(rest)
	}
	return q
}

func matchScore(query string, words []string, title string) float64 {
	matcher := difflib.NewMatcher(splitChars(query), splitChars(title))
	score := matcher.Ratio()

	for _, word := range words {
		if utf8.RuneCountInString(word) > minBonusWordLen && strings.Contains(title, word) {
			score += wordBonus
		}
	}
	return score
}

// splitChars splits s into single-character elements for sequence matching.
func splitChars(s string) []string {
	return strings.Split(s, "")
}
