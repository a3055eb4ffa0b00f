package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/medbook/backend/internal/domain/providers"
	"github.com/medbook/backend/internal/infrastructure/observability"
)

const embeddingKeyPrefix = "search:embedding:"

// CachedEmbeddingProvider memoizes query embeddings in a CacheProvider.
// Cache failures are logged and fall through to the wrapped provider.
type CachedEmbeddingProvider struct {
	next       providers.EmbeddingProvider
	cache      providers.CacheProvider
	model      string
	ttlSeconds int
}

// NewCachedEmbeddingProvider wraps next. model is part of the key so that
// switching embedding models never serves stale vectors.
func NewCachedEmbeddingProvider(next providers.EmbeddingProvider, cache providers.CacheProvider, model string, ttlSeconds int) *CachedEmbeddingProvider {
	return &CachedEmbeddingProvider{
		next:       next,
		cache:      cache,
		model:      model,
		ttlSeconds: ttlSeconds,
	}
}

// Key returns the cache key for text.
func (p *CachedEmbeddingProvider) Key(text string) string {
	return embeddingKeyPrefix + p.model + ":" + strconv.FormatUint(xxhash.Sum64String(text), 16)
}

// Embed returns a cached vector when present, otherwise calls the wrapped
// provider and stores the result. An undecodable entry is evicted before the
// live call so a failed write cannot leave it behind.
func (p *CachedEmbeddingProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	logger := observability.LoggerFromContext(ctx)
	key := p.Key(text)

	if data, err := p.cache.Get(ctx, key); err == nil {
		var vector []float64
		if err := json.Unmarshal(data, &vector); err == nil && len(vector) > 0 {
			return vector, nil
		}
		logger.Warn().Str("key", key).Msg("Discarding undecodable cached embedding")
		if err := p.cache.Delete(ctx, key); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Embedding cache delete failed")
		}
	} else if !errors.Is(err, providers.ErrCacheMiss) {
		logger.Warn().Err(err).Str("key", key).Msg("Embedding cache read failed")
	}

	vector, err := p.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(vector)
	if err == nil {
		if err := p.cache.Set(ctx, key, data, p.ttlSeconds); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Embedding cache write failed")
		}
	}
	return vector, nil
}
