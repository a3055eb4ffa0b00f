package services

import (
	"sort"

	"github.com/medbook/backend/internal/domain/entities"
)

// Ranked pairs a row with the scores it was ranked by.
type Ranked[T any] struct {
	Row   T
	Match entities.MatchScore
}

// selectRanked keeps items whose final score is at least threshold, sorts
// them by descending score and truncates to topN when topN is positive.
// Equal scores keep their input order.
func selectRanked[T any](items []Ranked[T], threshold float64, topN int) []Ranked[T] {
	kept := make([]Ranked[T], 0, len(items))
	for _, item := range items {
		if item.Match.Score >= threshold {
			kept = append(kept, item)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Match.Score > kept[j].Match.Score
	})

	if topN > 0 && len(kept) > topN {
		kept = kept[:topN]
	}
	return kept
}
