package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medbook/backend/internal/domain/entities"
	"github.com/medbook/backend/pkg/config"
	apperrors "github.com/medbook/backend/pkg/errors"
)

func newTestSearchService(t *testing.T, embedder *fakeEmbedder, llm *keywordLLM) *GlobalSearchService {
	t.Helper()
	cfg := config.SearchConfig{Workers: 2}
	var svc *GlobalSearchService
	var err error
	switch {
	case embedder != nil && llm != nil:
		svc, err = NewGlobalSearchService(embedder, llm, cfg)
	case embedder != nil:
		svc, err = NewGlobalSearchService(embedder, nil, cfg)
	case llm != nil:
		svc, err = NewGlobalSearchService(nil, llm, cfg)
	default:
		svc, err = NewGlobalSearchService(nil, nil, cfg)
	}
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func laserTreatments() []*entities.Treatment {
	return []*entities.Treatment{
		{
			ID:             "B",
			Name:           "Chemical Peel",
			NameSV:         "Kemisk peeling",
			Embeddings:     []float64{0, 1, 0},
			NameEmbeddings: []float64{0, 0.9, 0.1},
		},
		{
			ID:             "A",
			Name:           "Laser Hair Removal",
			NameSV:         "Laserhårborttagning",
			Description:    "Permanent hair reduction",
			DescriptionSV:  "Permanent hårreducering",
			Embeddings:     []float64{1, 0, 0},
			NameEmbeddings: []float64{0.95, 0.05, 0},
		},
	}
}

func TestTreatmentsVectorResult_LaserScenario(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{"laser": {1, 0.05, 0}}}
	svc := newTestSearchService(t, embedder, nil)

	results, err := svc.TreatmentsVectorResult(context.Background(), laserTreatments(), "  Laser ", entities.SearchOptions{})
	require.NoError(t, err)

	require.Len(t, results, 1)
	a := results[0]
	assert.Equal(t, "A", a.ID)
	require.NotNil(t, a.Match)
	assert.GreaterOrEqual(t, a.Match.NameScore, 0.80)
	assert.GreaterOrEqual(t, a.Match.HybridScore, 0.80)
	assert.Equal(t, a.Match.HybridScore, a.Match.Score)
	assert.Nil(t, a.Embeddings)
	assert.Nil(t, a.NameEmbeddings)
	assert.Equal(t, []string{"laser"}, embedder.seen)
}

func TestTreatmentsVectorResult_EmptyQueryPassesRowsThrough(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc := newTestSearchService(t, embedder, nil)
	rows := laserTreatments()

	results, err := svc.TreatmentsVectorResult(context.Background(), rows, "   ", entities.SearchOptions{TopN: 1})
	require.NoError(t, err)

	require.Len(t, results, len(rows))
	for i := range rows {
		assert.Same(t, rows[i], results[i])
	}
	assert.Empty(t, embedder.seen)
}

func TestTreatmentsVectorResult_RowWithoutEmbeddingsIsExcluded(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{"peel": {0, 1, 0}}}
	svc := newTestSearchService(t, embedder, nil)

	rows := append(laserTreatments(), &entities.Treatment{ID: "C", Name: "Peel Deluxe"})
	results, err := svc.TreatmentsVectorResult(context.Background(), rows, "peel", entities.SearchOptions{Threshold: entities.ScoreThreshold(0.0001)})
	require.NoError(t, err)

	for _, r := range results {
		assert.NotEqual(t, "C", r.ID)
	}
}

func TestTreatmentsVectorResult_SwedishProjectionAfterRanking(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{"laser": {1, 0.05, 0}}}
	svc := newTestSearchService(t, embedder, nil)
	rows := laserTreatments()

	results, err := svc.TreatmentsVectorResult(context.Background(), rows, "laser", entities.SearchOptions{Language: entities.LanguageSwedish})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Laserhårborttagning", results[0].Name)
	assert.Equal(t, "Permanent hårreducering", results[0].Description)
	// input rows are not mutated
	assert.Equal(t, "Laser Hair Removal", rows[1].Name)
	assert.NotNil(t, rows[1].Embeddings)
}

func TestTreatmentsVectorResult_SortsAndTruncates(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{"skin": {1, 1, 0}}}
	svc := newTestSearchService(t, embedder, nil)

	rows := []*entities.Treatment{
		{ID: "low", Embeddings: []float64{1, 0.2, 0}},
		{ID: "high", Embeddings: []float64{1, 1, 0}},
		{ID: "mid", Embeddings: []float64{1, 0.6, 0}},
	}

	results, err := svc.TreatmentsVectorResult(context.Background(), rows, "skin", entities.SearchOptions{TopN: 2})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "high", results[0].ID)
	assert.Equal(t, "mid", results[1].ID)
	assert.GreaterOrEqual(t, results[0].Match.Score, results[1].Match.Score)
}

func TestTreatmentsVectorResult_EmbeddingFailurePropagates(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("connection refused")}
	svc := newTestSearchService(t, embedder, nil)

	_, err := svc.TreatmentsVectorResult(context.Background(), laserTreatments(), "laser", entities.SearchOptions{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeExternal, apperrors.TypeOf(err))
}

func TestVectorResult_NotConfigured(t *testing.T) {
	svc := newTestSearchService(t, nil, nil)

	_, err := svc.DoctorsVectorResult(context.Background(), nil, "anna", entities.SearchOptions{})
	assert.Equal(t, apperrors.ErrorTypeExternal, apperrors.TypeOf(err))

	_, err = svc.DevicesAIResult(context.Background(), nil, "pen", entities.SearchOptions{})
	assert.Equal(t, apperrors.ErrorTypeExternal, apperrors.TypeOf(err))
}

func TestDoctorsVectorResult_KeywordBoostAndHonorific(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{"andersson": {1, 0}}}
	svc := newTestSearchService(t, embedder, nil)

	rows := []*entities.Doctor{
		// same cosine; only the first name earns the keyword boost
		{ID: "d1", Name: "Dr. Anna Andersson", Embeddings: []float64{0.5, 0.8660254037844386}},
		{ID: "d2", Name: "Dr. Erik Berg", Embeddings: []float64{0.5, 0.8660254037844386}},
		{ID: "d3", Name: "Dr. Sara Lind"},
	}

	results, err := svc.DoctorsVectorResult(context.Background(), rows, "Dr. Andersson", entities.SearchOptions{Threshold: entities.ScoreThreshold(0.6)})
	require.NoError(t, err)

	assert.Equal(t, []string{"andersson"}, embedder.seen)
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].ID)
	assert.InDelta(t, 0.5, results[0].Match.FullScore, 1e-9)
	assert.InDelta(t, 0.65, results[0].Match.Score, 1e-9)
	assert.Zero(t, results[0].Match.NameScore)
}

func TestClinicsVectorResult_ThresholdOverride(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{"city clinic": {1, 0}}}
	svc := newTestSearchService(t, embedder, nil)

	rows := []*entities.Clinic{
		{ID: "c1", Name: "City Clinic", Embeddings: []float64{0.6, 0.8}},
		{ID: "c2", Name: "Harbour Aesthetics", Embeddings: []float64{0.6, 0.8}},
	}

	results, err := svc.ClinicsVectorResult(context.Background(), rows, "City Clinic", entities.SearchOptions{Threshold: entities.ScoreThreshold(0.7)})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ID)
	assert.InDelta(t, 0.75, results[0].Match.Score, 1e-9)
}

func TestSelectRanked_ThresholdIsIdempotent(t *testing.T) {
	items := []Ranked[string]{
		{Row: "a", Match: entities.MatchScore{Score: 0.2}},
		{Row: "b", Match: entities.MatchScore{Score: 0.4}},
		{Row: "c", Match: entities.MatchScore{Score: 0.9}},
		{Row: "d", Match: entities.MatchScore{Score: 0.41}},
	}

	once := selectRanked(items, 0.40, 0)
	twice := selectRanked(once, 0.40, 0)

	assert.Equal(t, once, twice)
	assert.Len(t, once, 3)
	assert.Equal(t, "c", once[0].Row)
}

func TestDevicesAIResult(t *testing.T) {
	llm := &keywordLLM{keyword: "pen"}
	svc := newTestSearchService(t, nil, llm)

	rows := []*entities.Device{
		{ID: "1", Name: "Derma Pen", NameSV: "Dermapenna", Category: "microneedling"},
		{ID: "2", Name: "LED Mask", Category: "light therapy"},
		{ID: "3", Name: "Hydra Pen", Category: "microneedling"},
	}

	results, err := svc.DevicesAIResult(context.Background(), rows, "microneedling pen", entities.SearchOptions{TopN: 5, Language: entities.LanguageSwedish})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "Dermapenna", results[0].Name)
	assert.Equal(t, "Hydra Pen", results[1].Name)
	assert.InDelta(t, 0.9, results[0].Match.Score, 1e-9)
}

func TestDevicesAIResult_ExplicitZeroThresholdKeepsEveryRow(t *testing.T) {
	llm := &keywordLLM{keyword: "pen"}
	svc := newTestSearchService(t, nil, llm)

	rows := []*entities.Device{
		{ID: "1", Name: "Derma Pen", Category: "microneedling"},
		{ID: "2", Name: "LED Mask", Category: "light therapy"},
	}

	results, err := svc.DevicesAIResult(context.Background(), rows, "pen", entities.SearchOptions{Threshold: entities.ScoreThreshold(0)})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Derma Pen", results[0].Name)
	assert.Equal(t, "LED Mask", results[1].Name)
	assert.InDelta(t, 0.2, results[1].Match.Score, 1e-9)

	// without a threshold the 0.40 default drops the mask
	results, err = svc.DevicesAIResult(context.Background(), rows, "pen", entities.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Derma Pen", results[0].Name)
}

func TestDoctorsAIResult_NoMatchesIsEmpty(t *testing.T) {
	llm := &keywordLLM{keyword: "dermatology"}
	svc := newTestSearchService(t, nil, llm)

	rows := []*entities.Doctor{
		{ID: "d1", Name: "Anna Andersson", Specialization: "Plastic surgery"},
		{ID: "d2", Name: "Erik Berg", Specialization: "Nurse injector"},
	}

	results, err := svc.DoctorsAIResult(context.Background(), rows, "dermatology", entities.LanguageEnglish)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestClinicsAIResult_LocalizesTreatments(t *testing.T) {
	llm := &keywordLLM{keyword: "botox"}
	svc := newTestSearchService(t, nil, llm)

	rows := []*entities.Clinic{
		{ID: "c1", Name: "Harbour Aesthetics", Treatments: []entities.TranslatedName{{Name: "Botox", NameSV: "Botox"}, {Name: "Fillers", NameSV: "Fillare"}}},
		{ID: "c2", Name: "Spine Centre", Treatments: []entities.TranslatedName{{Name: "Physiotherapy"}}},
	}

	results, err := svc.ClinicsAIResult(context.Background(), rows, "botox", entities.LanguageSwedish)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ID)
	assert.Equal(t, []entities.TranslatedName{{Name: "Botox"}, {Name: "Fillare"}}, results[0].Treatments)
}

func TestDoctorsAIResult_CancelledContext(t *testing.T) {
	llm := &keywordLLM{keyword: "anna"}
	svc := newTestSearchService(t, nil, llm)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.DoctorsAIResult(ctx, []*entities.Doctor{{ID: "d1", Name: "Anna"}}, "anna", entities.LanguageEnglish)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApplyCandidateScores(t *testing.T) {
	svc := newTestSearchService(t, nil, nil)
	candidates := []entities.SimilarityCandidate{{ID: "x"}, {ID: "y"}, {ID: "z"}}
	scores := []entities.SimilarityScore{{ID: "y", Score: 0.45}, {ID: "z", Score: 0.8}, {ID: "x", Score: 0.1}}

	got := svc.ApplyCandidateScores(candidates, scores, entities.SearchOptions{})
	assert.Equal(t, []entities.SimilarityScore{{ID: "z", Score: 0.8}, {ID: "y", Score: 0.45}}, got)
}

func TestApplyCandidateScores_ExplicitZeroThreshold(t *testing.T) {
	svc := newTestSearchService(t, nil, nil)
	candidates := []entities.SimilarityCandidate{{ID: "x"}, {ID: "y"}}
	scores := []entities.SimilarityScore{{ID: "y", Score: 0.45}}

	got := svc.ApplyCandidateScores(candidates, scores, entities.SearchOptions{Threshold: entities.ScoreThreshold(0)})
	assert.Equal(t, []entities.SimilarityScore{{ID: "y", Score: 0.45}, {ID: "x", Score: 0}}, got)
}
