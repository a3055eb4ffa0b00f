package entities

import (
	"time"
)

// SearchEvent records a single handled search for analytics.
type SearchEvent struct {
	ID          string       `json:"id" db:"id"`
	Query       string       `json:"query" db:"query"`
	Entity      SearchEntity `json:"entity" db:"entity"`
	Mode        SearchMode   `json:"mode" db:"mode"`
	Language    Language     `json:"language" db:"language"`
	ResultCount int          `json:"result_count" db:"result_count"`
	LatencyMs   int          `json:"latency_ms" db:"latency_ms"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}
