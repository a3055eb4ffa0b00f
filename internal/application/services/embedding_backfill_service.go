package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/medbook/backend/internal/domain/entities"
	"github.com/medbook/backend/internal/domain/providers"
	"github.com/medbook/backend/internal/domain/repositories"
	"github.com/medbook/backend/internal/infrastructure/observability"
	"github.com/medbook/backend/pkg/retry"
)

// BackfillPageSize is how many rows are listed per catalog query.
const BackfillPageSize = 100

// EmbeddableEntities are the catalogs that store embeddings.
var EmbeddableEntities = []entities.SearchEntity{
	entities.SearchEntityTreatment,
	entities.SearchEntityDoctor,
	entities.SearchEntityClinic,
}

type BackfillSummary struct {
	TotalProcessed int `json:"total_processed"`
	SuccessCount   int `json:"success_count"`
	FailureCount   int `json:"failure_count"`
}

// EmbeddingBackfillService computes embeddings for catalog rows that have
// none. Rows that fail are skipped for the rest of the run.
type EmbeddingBackfillService struct {
	repo        repositories.CatalogEmbeddingRepository
	embedder    providers.EmbeddingProvider
	workerCount int
	retryConfig retry.Config
}

func NewEmbeddingBackfillService(
	repo repositories.CatalogEmbeddingRepository,
	embedder providers.EmbeddingProvider,
	workers int,
	maxRetries int,
) *EmbeddingBackfillService {
	if workers <= 0 {
		workers = 1
	}
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &EmbeddingBackfillService{
		repo:        repo,
		embedder:    embedder,
		workerCount: workers,
		retryConfig: retry.Config{
			MaxAttempts:   maxRetries,
			InitialDelay:  500 * time.Millisecond,
			MaxDelay:      5 * time.Second,
			BackoffFactor: 2.0,
		},
	}
}

// BackfillAll fills every row of entity that is missing embeddings.
func (s *EmbeddingBackfillService) BackfillAll(ctx context.Context, entity entities.SearchEntity) (*BackfillSummary, error) {
	logger := observability.LoggerFromContext(ctx)
	var processed, success, failure int64

	targets := make(chan *entities.EmbeddingTarget, BackfillPageSize)
	var wg sync.WaitGroup

	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for target := range targets {
				err := s.BackfillSingle(ctx, target)
				atomic.AddInt64(&processed, 1)
				if err != nil {
					atomic.AddInt64(&failure, 1)
					logger.Warn().Err(err).Str("entity", string(entity)).Str("id", target.ID).Msg("Failed to backfill embeddings")
				} else {
					atomic.AddInt64(&success, 1)
				}
			}
		}()
	}

	summarize := func() *BackfillSummary {
		return &BackfillSummary{
			TotalProcessed: int(atomic.LoadInt64(&processed)),
			SuccessCount:   int(atomic.LoadInt64(&success)),
			FailureCount:   int(atomic.LoadInt64(&failure)),
		}
	}

	// keyset paging keeps failed rows from being listed again
	afterID := ""
	for {
		page, err := s.repo.ListMissingEmbeddings(ctx, entity, afterID, BackfillPageSize)
		if err != nil {
			close(targets)
			wg.Wait()
			return summarize(), fmt.Errorf("failed to list %s rows missing embeddings: %w", entity, err)
		}

		for _, target := range page {
			select {
			case targets <- target:
			case <-ctx.Done():
				close(targets)
				wg.Wait()
				return summarize(), ctx.Err()
			}
		}

		if len(page) < BackfillPageSize {
			break
		}
		afterID = page[len(page)-1].ID
	}

	close(targets)
	wg.Wait()

	return summarize(), nil
}

// BackfillSingle embeds one row and stores the result. Embedding calls are
// retried with backoff; the write is not.
func (s *EmbeddingBackfillService) BackfillSingle(ctx context.Context, target *entities.EmbeddingTarget) error {
	full, err := s.embed(ctx, target.Text)
	if err != nil {
		return err
	}

	var name []float64
	if target.NameText != "" {
		if name, err = s.embed(ctx, target.NameText); err != nil {
			return err
		}
	}

	if err := s.repo.SaveEmbeddings(ctx, target.Entity, target.ID, full, name); err != nil {
		return fmt.Errorf("failed to save embeddings for %s %s: %w", target.Entity, target.ID, err)
	}
	return nil
}

func (s *EmbeddingBackfillService) embed(ctx context.Context, text string) ([]float64, error) {
	var vector []float64
	err := retry.Do(ctx, s.retryConfig, func() error {
		v, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return err
		}
		vector = v
		return nil
	})
	return vector, err
}
