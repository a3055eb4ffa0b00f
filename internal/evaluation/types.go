package evaluation

import (
	"time"

	"github.com/medbook/backend/internal/domain/entities"
)

// IsValidEntity reports whether e names a searchable catalog.
func IsValidEntity(e entities.SearchEntity) bool {
	switch e {
	case entities.SearchEntityTreatment, entities.SearchEntityDoctor, entities.SearchEntityClinic, entities.SearchEntityDevice:
		return true
	}
	return false
}

// GoldenQuery is a labeled query with the row IDs a good ranking returns.
type GoldenQuery struct {
	ID          string                `json:"id"`
	Query       string                `json:"query"`
	Entity      entities.SearchEntity `json:"entity"`
	Mode        entities.SearchMode   `json:"mode,omitempty"` // vector when empty; devices always use ai
	Language    string                `json:"language,omitempty"`
	ExpectedIDs []string              `json:"expected_ids"`
	Difficulty  string                `json:"difficulty"` // easy, medium, hard
}

// EvalResult holds the evaluation outcome for a single query.
type EvalResult struct {
	QueryID      string                `json:"query_id"`
	Query        string                `json:"query"`
	Entity       entities.SearchEntity `json:"entity"`
	RecallAtK    float64               `json:"recall_at_k"`
	MRRAtK       float64               `json:"mrr_at_k"`
	ResultCount  int                   `json:"result_count"`
	RetrievedIDs []string              `json:"retrieved_ids,omitempty"`
	Latency      time.Duration         `json:"latency"`
	Error        string                `json:"error,omitempty"`
}

// EvalSummary holds aggregate metrics across all golden queries.
type EvalSummary struct {
	K               int                                      `json:"k"`
	TotalQueries    int                                      `json:"total_queries"`
	AvgRecallAtK    float64                                  `json:"avg_recall_at_k"`
	AvgMRRAtK       float64                                  `json:"avg_mrr_at_k"`
	AvgLatency      time.Duration                            `json:"avg_latency"`
	QueriesWithHits int                                      `json:"queries_with_hits"` // queries that returned at least 1 result
	FailedQueries   int                                      `json:"failed_queries"`
	ByEntity        map[entities.SearchEntity]*EntitySummary `json:"by_entity"`
	Results         []EvalResult                             `json:"results"`
}

// EntitySummary holds metrics grouped by catalog.
type EntitySummary struct {
	Count        int     `json:"count"`
	AvgRecallAtK float64 `json:"avg_recall_at_k"`
	AvgMRRAtK    float64 `json:"avg_mrr_at_k"`
}
