package evaluation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medbook/backend/internal/domain/entities"
)

func TestLoadGoldenQueries_ValidFile(t *testing.T) {
	content := `[
		{"id": "q1", "query": "laser hair removal", "entity": "treatment", "expected_ids": ["t-laser"], "difficulty": "easy"},
		{"id": "q2", "query": "hudläkare", "entity": "doctor", "mode": "ai", "language": "sv", "expected_ids": ["d1", "d7"], "difficulty": "hard"}
	]`
	path := writeTempFile(t, content)

	queries, err := LoadGoldenQueries(path)
	require.NoError(t, err)
	require.Len(t, queries, 2)

	assert.Equal(t, "q1", queries[0].ID)
	assert.Equal(t, entities.SearchEntityTreatment, queries[0].Entity)
	assert.Empty(t, queries[0].Mode)
	assert.Equal(t, entities.SearchModeAI, queries[1].Mode)
	assert.Equal(t, "sv", queries[1].Language)
	assert.Equal(t, []string{"d1", "d7"}, queries[1].ExpectedIDs)
	assert.NoError(t, ValidateGoldenQueries(queries))
}

func TestLoadGoldenQueries_Errors(t *testing.T) {
	_, err := LoadGoldenQueries("/nonexistent/path.json")
	assert.Error(t, err)

	_, err = LoadGoldenQueries(writeTempFile(t, `not valid json`))
	assert.Error(t, err)
}

func TestLoadGoldenQueries_EmptyArray(t *testing.T) {
	queries, err := LoadGoldenQueries(writeTempFile(t, `[]`))
	require.NoError(t, err)
	assert.Empty(t, queries)
}

func TestValidateGoldenQueries(t *testing.T) {
	valid := func() GoldenQuery {
		return GoldenQuery{
			ID:          "q1",
			Query:       "botox",
			Entity:      entities.SearchEntityTreatment,
			ExpectedIDs: []string{"t1"},
			Difficulty:  "easy",
		}
	}

	tests := []struct {
		name   string
		mutate func(q *GoldenQuery)
	}{
		{"missing id", func(q *GoldenQuery) { q.ID = "" }},
		{"missing query", func(q *GoldenQuery) { q.Query = "" }},
		{"unknown entity", func(q *GoldenQuery) { q.Entity = "facility" }},
		{"unknown mode", func(q *GoldenQuery) { q.Mode = "keyword" }},
		{"treatment in ai mode", func(q *GoldenQuery) { q.Mode = entities.SearchModeAI }},
		{"no expected ids", func(q *GoldenQuery) { q.ExpectedIDs = nil }},
		{"bad difficulty", func(q *GoldenQuery) { q.Difficulty = "impossible" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := valid()
			tt.mutate(&q)
			assert.Error(t, ValidateGoldenQueries([]GoldenQuery{q}))
		})
	}

	t.Run("duplicate ids", func(t *testing.T) {
		assert.Error(t, ValidateGoldenQueries([]GoldenQuery{valid(), valid()}))
	})

	t.Run("valid", func(t *testing.T) {
		q := valid()
		clinic := valid()
		clinic.ID = "q2"
		clinic.Entity = entities.SearchEntityClinic
		clinic.Mode = entities.SearchModeAI
		assert.NoError(t, ValidateGoldenQueries([]GoldenQuery{q, clinic}))
	})
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "golden.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
