package evaluation

import (
	"context"
	"time"

	"github.com/medbook/backend/internal/domain/entities"
	"github.com/medbook/backend/internal/infrastructure/observability"
)

const defaultK = 10

// Searcher returns the ranked row IDs a golden query retrieves.
type Searcher interface {
	Search(ctx context.Context, query GoldenQuery) ([]string, error)
}

// Runner runs evaluation across a set of golden queries.
type Runner struct {
	searcher Searcher
	k        int
}

// NewRunner creates a runner that scores the top k results. k <= 0 uses 10.
func NewRunner(searcher Searcher, k int) *Runner {
	if k <= 0 {
		k = defaultK
	}
	return &Runner{searcher: searcher, k: k}
}

// Run evaluates every query in order. A failed search scores zero and is
// counted in FailedQueries; only context cancellation aborts the run.
func (r *Runner) Run(ctx context.Context, queries []GoldenQuery) (*EvalSummary, error) {
	logger := observability.LoggerFromContext(ctx)
	summary := &EvalSummary{
		K:            r.k,
		TotalQueries: len(queries),
		ByEntity:     make(map[entities.SearchEntity]*EntitySummary),
		Results:      make([]EvalResult, 0, len(queries)),
	}

	for _, gq := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		ids, err := r.searcher.Search(ctx, gq)
		result := EvalResult{
			QueryID: gq.ID,
			Query:   gq.Query,
			Entity:  gq.Entity,
			Latency: time.Since(start),
		}

		if err != nil {
			logger.Warn().Err(err).Str("query_id", gq.ID).Msg("Golden query failed")
			result.Error = err.Error()
			summary.FailedQueries++
		} else {
			result.RecallAtK = RecallAtK(gq.ExpectedIDs, ids, r.k)
			result.MRRAtK = MRRAtK(gq.ExpectedIDs, ids, r.k)
			result.ResultCount = len(ids)
			result.RetrievedIDs = topK(ids, r.k)
		}

		r.updateSummary(summary, result)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	s.Results = append(s.Results, res)
	s.AvgRecallAtK += res.RecallAtK
	s.AvgMRRAtK += res.MRRAtK
	s.AvgLatency += res.Latency
	if res.ResultCount > 0 {
		s.QueriesWithHits++
	}

	es, ok := s.ByEntity[res.Entity]
	if !ok {
		es = &EntitySummary{}
		s.ByEntity[res.Entity] = es
	}
	es.Count++
	es.AvgRecallAtK += res.RecallAtK
	es.AvgMRRAtK += res.MRRAtK
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalQueries > 0 {
		n := float64(s.TotalQueries)
		s.AvgRecallAtK /= n
		s.AvgMRRAtK /= n
		s.AvgLatency /= time.Duration(s.TotalQueries)
	}

	for _, es := range s.ByEntity {
		if es.Count > 0 {
			n := float64(es.Count)
			es.AvgRecallAtK /= n
			es.AvgMRRAtK /= n
		}
	}
}
