package evaluation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medbook/backend/internal/domain/entities"
)

type mapSearcher map[string][]string

func (m mapSearcher) Search(ctx context.Context, q GoldenQuery) ([]string, error) {
	ids, ok := m[q.ID]
	if !ok {
		return nil, errors.New("embedding service unavailable")
	}
	return ids, nil
}

func TestRunner_Run(t *testing.T) {
	queries := []GoldenQuery{
		{ID: "q1", Query: "botox", Entity: entities.SearchEntityTreatment, ExpectedIDs: []string{"t1"}},
		{ID: "q2", Query: "dermatolog", Entity: entities.SearchEntityDoctor, ExpectedIDs: []string{"d1", "d2"}},
		{ID: "q3", Query: "laser", Entity: entities.SearchEntityDevice, ExpectedIDs: []string{"x1"}},
	}
	searcher := mapSearcher{
		"q1": {"t1", "t2"},
		"q2": {"d9", "d2"},
	}

	summary, err := NewRunner(searcher, 0).Run(context.Background(), queries)
	require.NoError(t, err)

	assert.Equal(t, 10, summary.K)
	assert.Equal(t, 3, summary.TotalQueries)
	assert.Equal(t, 2, summary.QueriesWithHits)
	assert.Equal(t, 1, summary.FailedQueries)
	// (1.0 + 0.5 + 0) / 3
	assert.InDelta(t, 0.5, summary.AvgRecallAtK, 1e-9)
	assert.InDelta(t, 0.5, summary.AvgMRRAtK, 1e-9)

	require.Len(t, summary.Results, 3)
	assert.Equal(t, "embedding service unavailable", summary.Results[2].Error)

	doctors := summary.ByEntity[entities.SearchEntityDoctor]
	require.NotNil(t, doctors)
	assert.Equal(t, 1, doctors.Count)
	assert.InDelta(t, 0.5, doctors.AvgMRRAtK, 1e-9)
}

func TestRunner_TruncatesRetrievedToK(t *testing.T) {
	queries := []GoldenQuery{{ID: "q1", Entity: entities.SearchEntityClinic, ExpectedIDs: []string{"c3"}}}
	searcher := mapSearcher{"q1": {"c1", "c2", "c3"}}

	summary, err := NewRunner(searcher, 2).Run(context.Background(), queries)
	require.NoError(t, err)

	assert.Equal(t, []string{"c1", "c2"}, summary.Results[0].RetrievedIDs)
	assert.Equal(t, 3, summary.Results[0].ResultCount)
	assert.Zero(t, summary.AvgRecallAtK)
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(mapSearcher{}, 10).Run(ctx, []GoldenQuery{{ID: "q1"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_EmptySet(t *testing.T) {
	summary, err := NewRunner(mapSearcher{}, 10).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalQueries)
	assert.Zero(t, summary.AvgRecallAtK)
}
