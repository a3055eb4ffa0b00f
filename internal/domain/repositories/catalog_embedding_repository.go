package repositories

import (
	"context"

	"github.com/medbook/backend/internal/domain/entities"
)

// CatalogEmbeddingRepository finds catalog rows without embeddings and
// stores newly computed ones.
type CatalogEmbeddingRepository interface {
	// ListMissingEmbeddings returns up to limit rows of entity with an ID
	// greater than afterID, ordered by ID.
	ListMissingEmbeddings(ctx context.Context, entity entities.SearchEntity, afterID string, limit int) ([]*entities.EmbeddingTarget, error)
	// SaveEmbeddings writes the vectors for one row. name is ignored for
	// entities without a name embedding.
	SaveEmbeddings(ctx context.Context, entity entities.SearchEntity, id string, full, name []float64) error
}
