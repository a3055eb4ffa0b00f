// Package textsim provides the lexical similarity primitives used as a cheap
// local signal next to embedding and LLM scores.
package textsim

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// EditDistance returns the Levenshtein distance between a and b with unit
// cost for insertion, deletion and substitution. Strings are compared by rune,
// so an empty side yields the rune length of the other.
func EditDistance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// TokenSimilarity normalizes EditDistance into [0,1]:
// 1 - distance / max(len(a), len(b)). Either side empty yields 0.
func TokenSimilarity(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	return 1 - float64(EditDistance(a, b))/float64(max(la, lb))
}

// PhraseSimilarity averages, over every query token, the best TokenSimilarity
// against any candidate token. Inputs are lower-cased and split on whitespace.
// It is asymmetric: PhraseSimilarity(q, c) need not equal PhraseSimilarity(c, q).
func PhraseSimilarity(query, candidate string) float64 {
	queryTokens := Tokenize(query)
	candidateTokens := Tokenize(candidate)
	if len(queryTokens) == 0 || len(candidateTokens) == 0 {
		return 0
	}

	total := 0.0
	for _, qt := range queryTokens {
		total += BestTokenMatch(qt, candidateTokens)
	}
	return total / float64(len(queryTokens))
}

// BestTokenMatch returns the highest TokenSimilarity between token and any of
// candidates.
func BestTokenMatch(token string, candidates []string) float64 {
	best := 0.0
	for _, c := range candidates {
		if s := TokenSimilarity(token, c); s > best {
			best = s
		}
	}
	return best
}

// Tokenize lower-cases s and splits it on whitespace.
func Tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
