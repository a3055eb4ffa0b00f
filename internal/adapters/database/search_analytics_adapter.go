package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medbook/backend/internal/domain/entities"
	"github.com/medbook/backend/internal/domain/repositories"
	"github.com/medbook/backend/internal/infrastructure/clients/postgres"
	"github.com/medbook/backend/internal/infrastructure/observability"
	apperrors "github.com/medbook/backend/pkg/errors"
)

type SearchAnalyticsAdapter struct {
	client *postgres.Client
}

func NewSearchAnalyticsAdapter(client *postgres.Client) repositories.SearchAnalyticsRepository {
	return &SearchAnalyticsAdapter{client: client}
}

func (a *SearchAnalyticsAdapter) LogEvent(ctx context.Context, event *entities.SearchEvent) (err error) {
	ctx, done := observability.TraceDBQuery(ctx, "log_search_event")
	defer func() { done(err) }()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO search_events
		(id, query, entity, mode, language, result_count, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = a.client.DB().ExecContext(ctx, query,
		event.ID,
		event.Query,
		string(event.Entity),
		string(event.Mode),
		string(event.Language),
		event.ResultCount,
		event.LatencyMs,
		event.CreatedAt,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to log search event", err)
	}

	return nil
}

func (a *SearchAnalyticsAdapter) GetZeroResultQueries(ctx context.Context, limit int) (_ []*entities.SearchEvent, err error) {
	ctx, done := observability.TraceDBQuery(ctx, "zero_result_queries")
	defer func() { done(err) }()

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, query, entity, mode, language, result_count, latency_ms, created_at
		FROM search_events
		WHERE result_count = 0
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := a.client.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get zero result queries", err)
	}
	defer rows.Close()

	events := make([]*entities.SearchEvent, 0)
	for rows.Next() {
		e := &entities.SearchEvent{}
		var entity, mode, language string
		err := rows.Scan(
			&e.ID,
			&e.Query,
			&entity,
			&mode,
			&language,
			&e.ResultCount,
			&e.LatencyMs,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan search event", err)
		}
		e.Entity = entities.SearchEntity(entity)
		e.Mode = entities.SearchMode(mode)
		e.Language = entities.Language(language)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate search events", err)
	}

	return events, nil
}
