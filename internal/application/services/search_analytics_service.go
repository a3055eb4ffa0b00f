package services

import (
	"context"
	"strings"
	"time"

	"github.com/medbook/backend/internal/domain/entities"
	"github.com/medbook/backend/internal/domain/repositories"
	"github.com/medbook/backend/internal/infrastructure/observability"
)

const searchEventTimeout = 5 * time.Second

// SearchAnalyticsService records handled searches and surfaces the queries
// that found nothing.
type SearchAnalyticsService struct {
	repo repositories.SearchAnalyticsRepository
}

func NewSearchAnalyticsService(repo repositories.SearchAnalyticsRepository) *SearchAnalyticsService {
	return &SearchAnalyticsService{repo: repo}
}

// TrackSearch stores event in the background. Blank queries are not recorded.
func (s *SearchAnalyticsService) TrackSearch(ctx context.Context, event *entities.SearchEvent) {
	if event == nil || strings.TrimSpace(event.Query) == "" {
		return
	}

	logger := observability.LoggerFromContext(ctx)
	// the request context is cancelled once the response is written
	bg := context.WithoutCancel(ctx)

	go func() {
		ctx, cancel := context.WithTimeout(bg, searchEventTimeout)
		defer cancel()

		if err := s.repo.LogEvent(ctx, event); err != nil {
			logger.Warn().Err(err).Str("entity", string(event.Entity)).Msg("Failed to log search event")
		}
	}()
}

func (s *SearchAnalyticsService) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.GetZeroResultQueries(ctx, limit)
}
