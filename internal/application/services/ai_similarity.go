package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/medbook/backend/internal/domain/entities"
	"github.com/medbook/backend/internal/domain/providers"
	"github.com/medbook/backend/internal/infrastructure/observability"
)

const (
	DefaultGenericBatchSize = 200
	DefaultDeviceBatchSize  = 400
	DefaultClinicBatchSize  = 500

	defaultSimilarityWorkers = 8
)

// AISimilarityMatcher scores candidates against a query by sending
// contiguous batches to an LLM concurrently.
type AISimilarityMatcher struct {
	llm  providers.SimilarityLLM
	pool *ants.Pool
}

// NewAISimilarityMatcher creates a matcher whose batches run on a pool of
// at most workers goroutines.
func NewAISimilarityMatcher(llm providers.SimilarityLLM, workers int) (*AISimilarityMatcher, error) {
	if workers <= 0 {
		workers = defaultSimilarityWorkers
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	return &AISimilarityMatcher{llm: llm, pool: pool}, nil
}

// Close releases the worker pool.
func (m *AISimilarityMatcher) Close() {
	if m != nil && m.pool != nil {
		m.pool.Release()
	}
}

// RunSimilarity returns one score per candidate the LLM matched. A batch
// that fails, at transport or parse level, contributes no scores; the call
// itself never fails. Result order is unspecified.
func (m *AISimilarityMatcher) RunSimilarity(ctx context.Context, query string, candidates []entities.SimilarityCandidate, batchSize int) []entities.SimilarityScore {
	query = strings.TrimSpace(query)
	if len(candidates) == 0 || query == "" || m == nil || m.llm == nil {
		return []entities.SimilarityScore{}
	}
	if batchSize <= 0 {
		batchSize = DefaultGenericBatchSize
	}

	batches := splitBatches(candidates, batchSize)
	results := make([][]entities.SimilarityScore, len(batches))
	logger := observability.LoggerFromContext(ctx)
	start := time.Now()

	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			scores, err := m.runSingleBatch(ctx, query, batch)
			if err != nil {
				logger.Warn().Err(err).
					Int("batch", i).
					Int("batch_size", len(batch)).
					Msg("similarity batch failed, treating as no matches")
				recordSimilarityBatch(ctx, len(batch), err)
				return
			}
			recordSimilarityBatch(ctx, len(batch), nil)
			results[i] = scores
		}
		if err := m.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	merged := make([]entities.SimilarityScore, 0, len(candidates))
	for _, scores := range results {
		merged = append(merged, scores...)
	}

	logger.Debug().
		Int("candidates", len(candidates)).
		Int("batches", len(batches)).
		Int("matches", len(merged)).
		Dur("elapsed", time.Since(start)).
		Msg("similarity scoring finished")

	return merged
}

// runSingleBatch scores one batch. Transport errors are returned; malformed
// model output is logged and yields an empty result.
func (m *AISimilarityMatcher) runSingleBatch(ctx context.Context, query string, batch []entities.SimilarityCandidate) ([]entities.SimilarityScore, error) {
	raw, err := m.llm.CompleteJSON(ctx, similaritySystemPrompt, buildSimilarityUserPrompt(query, batch))
	if err != nil {
		return nil, err
	}

	scores, err := parseSimilarityResponse(raw, batch)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Int("response_length", len(raw)).
			Msg("could not parse similarity response")
		recordSimilarityParseFailure(ctx)
		return []entities.SimilarityScore{}, nil
	}
	return scores, nil
}

// splitBatches cuts items into contiguous slices of at most size elements.
func splitBatches[T any](items []T, size int) [][]T {
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}

// ApplySimilarity joins LLM scores onto rows by id. Rows without a score get
// 0, then rows below threshold are dropped, the rest sorted by descending
// score and truncated to topN when positive.
func ApplySimilarity[T any](rows []T, scores []entities.SimilarityScore, id func(T) string, threshold float64, topN int) []Ranked[T] {
	byID := make(map[string]float64, len(scores))
	for _, s := range scores {
		if prev, ok := byID[s.ID]; !ok || s.Score > prev {
			byID[s.ID] = s.Score
		}
	}

	ranked := make([]Ranked[T], 0, len(rows))
	for _, row := range rows {
		score := byID[id(row)]
		ranked = append(ranked, Ranked[T]{Row: row, Match: entities.MatchScore{Score: score}})
	}
	return selectRanked(ranked, threshold, topN)
}
