package services

import (
	"math"
	"regexp"
	"strings"

	"github.com/medbook/backend/pkg/textsim"
)

// Hand-tuned blending constants. They have no derivation beyond observed
// relevance and are kept verbatim.
const (
	strongNameScore   = 0.80
	weakNameScore     = 0.50
	strongNameWeight  = 0.85
	strongFullWeight  = 0.10
	strongNameBonus   = 0.05
	wideDivergence    = 0.20
	mediumDivergence  = 0.10
	keywordBoostFloor = 0.70
	keywordBoostRatio = 0.15
)

// BlendStrategy selects how name and content signals are merged on the
// embedding path. The two strategies are intentionally separate.
type BlendStrategy int

const (
	// BlendNameHybrid combines a name-embedding score with the full-text
	// score through CombineHybridScore. Used for treatments.
	BlendNameHybrid BlendStrategy = iota
	// BlendKeywordBoost adds a fuzzy keyword bonus on top of the full-text
	// cosine score. Used for doctors and clinics.
	BlendKeywordBoost
)

// CombineHybridScore blends a name-only similarity with a full semantic
// similarity.
//
//	name >= 0.80        -> min(1, 0.85*name + 0.10*full + 0.05)
//	name <  0.50        -> full
//	otherwise, by diff = |full - name|:
//	  diff >= 0.20      -> 0.35*name + 0.65*full
//	  0.10 <= diff < 0.20 -> 0.45*name + 0.55*full
//	  diff <  0.10      -> 0.60*name + 0.40*full
func CombineHybridScore(nameScore, fullScore float64) float64 {
	if nameScore >= strongNameScore {
		return math.Min(1, strongNameWeight*nameScore+strongFullWeight*fullScore+strongNameBonus)
	}
	if nameScore < weakNameScore {
		return fullScore
	}

	var nameWeight, fullWeight float64
	diff := math.Abs(fullScore - nameScore)
	switch {
	case diff >= wideDivergence:
		nameWeight, fullWeight = 0.35, 0.65
	case diff >= mediumDivergence:
		nameWeight, fullWeight = 0.45, 0.55
	default:
		nameWeight, fullWeight = 0.60, 0.40
	}
	return nameWeight*nameScore + fullWeight*fullScore
}

// KeywordBoost returns cosineScore plus 0.15 times the best pairwise token
// similarity between query and name, when that best match exceeds 0.70.
// The second return value is the best token similarity found.
func KeywordBoost(cosineScore float64, query, name string) (float64, float64) {
	queryTokens := textsim.Tokenize(query)
	nameTokens := textsim.Tokenize(name)

	best := 0.0
	for _, qt := range queryTokens {
		if s := textsim.BestTokenMatch(qt, nameTokens); s > best {
			best = s
		}
	}

	if best > keywordBoostFloor {
		return cosineScore + keywordBoostRatio*best, best
	}
	return cosineScore, best
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Empty vectors, vectors of different length and zero vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var honorificPrefix = regexp.MustCompile(`^dr\.\s*`)

// normalizeQuery trims and lower-cases a search string.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// normalizePersonQuery additionally strips a leading "dr." honorific.
func normalizePersonQuery(query string) string {
	return strings.TrimSpace(honorificPrefix.ReplaceAllString(normalizeQuery(query), ""))
}
