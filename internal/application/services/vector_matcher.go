package services

import (
	"context"

	"github.com/medbook/backend/internal/domain/entities"
	"github.com/medbook/backend/internal/domain/providers"
	apperrors "github.com/medbook/backend/pkg/errors"
)

// embeddingView is the part of a row the embedding path reads.
type embeddingView struct {
	Full  []float64
	Name  []float64
	Label string
}

// VectorMatcher ranks rows by cosine similarity between a query embedding
// and the rows' precomputed embeddings.
type VectorMatcher struct {
	embedder providers.EmbeddingProvider
}

// NewVectorMatcher creates a matcher backed by the given embedding provider.
func NewVectorMatcher(embedder providers.EmbeddingProvider) *VectorMatcher {
	return &VectorMatcher{embedder: embedder}
}

// embedQuery requests one embedding for an already normalized query.
// Failures propagate to the caller; there is no retry.
func (m *VectorMatcher) embedQuery(ctx context.Context, normalized string) ([]float64, error) {
	if m == nil || m.embedder == nil {
		return nil, apperrors.NewExternalError("embedding service is not configured", nil)
	}
	vector, err := m.embedder.Embed(ctx, normalized)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to embed search query", err)
	}
	return vector, nil
}

// scoreByEmbedding scores every row that has a full embedding. Rows without
// one are skipped entirely rather than scored as zero.
func scoreByEmbedding[T any](queryVector []float64, normalizedQuery string, rows []T, view func(T) embeddingView, strategy BlendStrategy) []Ranked[T] {
	scored := make([]Ranked[T], 0, len(rows))
	for _, row := range rows {
		v := view(row)
		if len(v.Full) == 0 {
			continue
		}

		fullScore := CosineSimilarity(queryVector, v.Full)

		var match entities.MatchScore
		switch strategy {
		case BlendKeywordBoost:
			boosted, _ := KeywordBoost(fullScore, normalizedQuery, normalizePersonQuery(v.Label))
			match = entities.MatchScore{
				FullScore:   fullScore,
				HybridScore: boosted,
				Score:       boosted,
			}
		default:
			nameScore := 0.0
			if len(v.Name) > 0 {
				nameScore = CosineSimilarity(queryVector, v.Name)
			}
			hybrid := CombineHybridScore(nameScore, fullScore)
			match = entities.MatchScore{
				NameScore:   nameScore,
				FullScore:   fullScore,
				HybridScore: hybrid,
				Score:       hybrid,
			}
		}

		scored = append(scored, Ranked[T]{Row: row, Match: match})
	}
	return scored
}

// MatchTreatments ranks treatments with the name/full hybrid combiner.
func (m *VectorMatcher) MatchTreatments(ctx context.Context, rows []*entities.Treatment, query string, threshold float64, topN int) ([]Ranked[*entities.Treatment], error) {
	normalized := normalizeQuery(query)
	queryVector, err := m.embedQuery(ctx, normalized)
	if err != nil {
		return nil, err
	}

	scored := scoreByEmbedding(queryVector, normalized, rows, func(t *entities.Treatment) embeddingView {
		return embeddingView{Full: t.Embeddings, Name: t.NameEmbeddings, Label: t.Name}
	}, BlendNameHybrid)

	return selectRanked(scored, threshold, topN), nil
}

// MatchDoctors ranks doctors with the keyword-boost strategy.
func (m *VectorMatcher) MatchDoctors(ctx context.Context, rows []*entities.Doctor, query string, threshold float64, topN int) ([]Ranked[*entities.Doctor], error) {
	normalized := normalizePersonQuery(query)
	queryVector, err := m.embedQuery(ctx, normalized)
	if err != nil {
		return nil, err
	}

	scored := scoreByEmbedding(queryVector, normalized, rows, func(d *entities.Doctor) embeddingView {
		return embeddingView{Full: d.Embeddings, Label: d.Name}
	}, BlendKeywordBoost)

	return selectRanked(scored, threshold, topN), nil
}

// MatchClinics ranks clinics with the keyword-boost strategy.
func (m *VectorMatcher) MatchClinics(ctx context.Context, rows []*entities.Clinic, query string, threshold float64, topN int) ([]Ranked[*entities.Clinic], error) {
	normalized := normalizePersonQuery(query)
	queryVector, err := m.embedQuery(ctx, normalized)
	if err != nil {
		return nil, err
	}

	scored := scoreByEmbedding(queryVector, normalized, rows, func(c *entities.Clinic) embeddingView {
		return embeddingView{Full: c.Embeddings, Label: c.Name}
	}, BlendKeywordBoost)

	return selectRanked(scored, threshold, topN), nil
}
