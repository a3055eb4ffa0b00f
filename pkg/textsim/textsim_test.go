package textsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"", "abc", 3},
		{"abc", "", 3},
		{"", "", 0},
		{"laser", "laser", 0},
		{"laser", "lazer", 1},
		{"peel", "peels", 1},
		{"botox", "xotob", 2},
		{"hårborttagning", "harborttagning", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, EditDistance(tt.a, tt.b))
			assert.Equal(t, tt.want, EditDistance(tt.b, tt.a), "distance should be symmetric")
		})
	}
}

func TestEditDistance_Identity(t *testing.T) {
	for _, s := range []string{"", "a", "chemical peel", "fillers", "ansiktsbehandling"} {
		assert.Zero(t, EditDistance(s, s))
	}
}

func TestTokenSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, TokenSimilarity("laser", "laser"))
	assert.Equal(t, 0.0, TokenSimilarity("", "laser"))
	assert.Equal(t, 0.0, TokenSimilarity("laser", ""))
	assert.InDelta(t, 0.8, TokenSimilarity("laser", "lazer"), 1e-9)
	assert.InDelta(t, 1-3.0/7.0, TokenSimilarity("kitten", "sitting"), 1e-9)
}

func TestTokenSimilarity_Bounds(t *testing.T) {
	words := []string{"a", "ab", "laser", "peel", "microneedling", "x", "dr", "hydrafacial"}
	for _, a := range words {
		for _, b := range words {
			s := TokenSimilarity(a, b)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
		assert.Equal(t, 1.0, TokenSimilarity(a, a))
	}
}

func TestPhraseSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, PhraseSimilarity("Laser Hair", "laser hair removal"))
	assert.Equal(t, 0.0, PhraseSimilarity("", "laser"))
	assert.Equal(t, 0.0, PhraseSimilarity("laser", "   "))

	// "laser" matches exactly, "removal" has no close candidate token
	got := PhraseSimilarity("laser removal", "laser")
	assert.InDelta(t, (1.0+TokenSimilarity("removal", "laser"))/2, got, 1e-9)
}

func TestPhraseSimilarity_Asymmetric(t *testing.T) {
	forward := PhraseSimilarity("laser", "laser hair removal")
	backward := PhraseSimilarity("laser hair removal", "laser")

	assert.Equal(t, 1.0, forward)
	assert.Less(t, backward, forward)
}
