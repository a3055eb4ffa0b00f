package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineHybridScore_Boundaries(t *testing.T) {
	tests := []struct {
		name      string
		nameScore float64
		fullScore float64
		want      float64
	}{
		{"strong name at boundary", 0.80, 0.0, 0.73},
		{"strong name capped at one", 1.0, 1.0, 1.0},
		{"strong name blends full", 0.90, 0.50, 0.85*0.90 + 0.10*0.50 + 0.05},
		{"weak name passes full through", 0.49, 0.62, 0.62},
		{"weak name ignores a higher name", 0.0, 0.30, 0.30},
		{"aligned scores", 0.65, 0.65, 0.65},
		{"small divergence", 0.60, 0.65, 0.60*0.60 + 0.40*0.65},
		{"medium divergence", 0.70, 0.55, 0.45*0.70 + 0.55*0.55},
		{"wide divergence", 0.55, 0.90, 0.35*0.55 + 0.65*0.90},
		{"wide divergence full below name", 0.75, 0.30, 0.35*0.75 + 0.65*0.30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CombineHybridScore(tt.nameScore, tt.fullScore), 1e-9)
		})
	}
}

func TestCombineHybridScore_DiffBandEdges(t *testing.T) {
	// 0.8 - 0.6 lands on the 0.20 edge and takes the wide band.
	assert.InDelta(t, 0.35*0.6+0.65*0.8, CombineHybridScore(0.6, 0.8), 1e-9)
	// 0.8 - 0.7 lands on the 0.10 edge and takes the medium band.
	assert.InDelta(t, 0.45*0.7+0.55*0.8, CombineHybridScore(0.7, 0.8), 1e-9)
	// 0.0625 apart falls in the narrow band.
	assert.InDelta(t, 0.60*0.5+0.40*0.5625, CombineHybridScore(0.5, 0.5625), 1e-9)
}

func TestKeywordBoost(t *testing.T) {
	boosted, best := KeywordBoost(0.50, "andersson", "anna andersson")
	assert.Equal(t, 1.0, best)
	assert.InDelta(t, 0.65, boosted, 1e-9)

	// "anderson" vs "andersson": distance 1 over 9 -> 0.888..
	boosted, best = KeywordBoost(0.40, "anderson", "anna andersson")
	assert.InDelta(t, 1-1.0/9.0, best, 1e-9)
	assert.InDelta(t, 0.40+0.15*best, boosted, 1e-9)

	boosted, best = KeywordBoost(0.40, "laser", "anna andersson")
	assert.LessOrEqual(t, best, 0.70)
	assert.Equal(t, 0.40, boosted)
}

func TestKeywordBoost_ExactlySeventyPercentIsNotBoosted(t *testing.T) {
	// "abcdefghij" vs "abcdefgxyz": 3 edits over 10 -> exactly 0.70
	boosted, best := KeywordBoost(0.3, "abcdefghij", "abcdefgxyz")
	assert.InDelta(t, 0.70, best, 1e-9)
	assert.Equal(t, 0.3, boosted)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	assert.InDelta(t, 1/math.Sqrt2, CosineSimilarity([]float64{1, 1}, []float64{1, 0}), 1e-9)
}

func TestCosineSimilarity_Degenerate(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 1}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, []float64{1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3}))
	assert.False(t, math.IsNaN(CosineSimilarity([]float64{0}, []float64{0})))
}

func TestNormalizePersonQuery(t *testing.T) {
	assert.Equal(t, "anna andersson", normalizePersonQuery("  Dr. Anna Andersson "))
	assert.Equal(t, "anna", normalizePersonQuery("dr.anna"))
	assert.Equal(t, "drake clinic", normalizePersonQuery("Drake Clinic"))
	assert.Equal(t, "laser", normalizeQuery(" LASER "))
}
