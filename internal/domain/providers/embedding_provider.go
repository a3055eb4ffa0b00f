package providers

import (
	"context"
)

// EmbeddingProvider turns one text into one fixed-length vector.
// Implementations must be safe for concurrent use.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
