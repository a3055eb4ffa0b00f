package repositories

import (
	"context"

	"github.com/medbook/backend/internal/domain/entities"
)

// SearchAnalyticsRepository records searches for relevance review.
type SearchAnalyticsRepository interface {
	LogEvent(ctx context.Context, event *entities.SearchEvent) error
	GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error)
}
