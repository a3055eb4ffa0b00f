package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/medbook/backend/internal/domain/providers"
	redisclient "github.com/medbook/backend/internal/infrastructure/clients/redis"
)

var (
	cacheMetricsOnce sync.Once
	cacheLookups     metric.Int64Counter
)

func recordLookup(ctx context.Context, result string) {
	cacheMetricsOnce.Do(func() {
		counter, err := otel.Meter("github.com/medbook/backend/cache").Int64Counter(
			"cache.redis.lookups",
			metric.WithDescription("Redis cache lookups by result"),
		)
		if err == nil {
			cacheLookups = counter
		}
	})
	if cacheLookups != nil {
		cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}

// RedisAdapter implements the CacheProvider interface using Redis. Keys are
// namespaced with the configured prefix.
type RedisAdapter struct {
	client *redisclient.Client
	prefix string
}

// NewRedisAdapter creates a new Redis cache adapter
func NewRedisAdapter(client *redisclient.Client, prefix string) providers.CacheProvider {
	return &RedisAdapter{
		client: client,
		prefix: prefix,
	}
}

func (a *RedisAdapter) key(k string) string {
	return a.prefix + k
}

// Get retrieves a value from cache. Missing keys yield providers.ErrCacheMiss.
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.Client().Get(ctx, a.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		recordLookup(ctx, "miss")
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	if err != nil {
		recordLookup(ctx, "error")
		return nil, fmt.Errorf("failed to get %s from cache: %w", key, err)
	}
	recordLookup(ctx, "hit")
	return result, nil
}

// Set stores a value. expirationSeconds <= 0 keeps the key until evicted.
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	var expiration time.Duration
	if expirationSeconds > 0 {
		expiration = time.Duration(expirationSeconds) * time.Second
	}
	if err := a.client.Client().Set(ctx, a.key(key), value, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set %s in cache: %w", key, err)
	}
	return nil
}

func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.client.Client().Del(ctx, a.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from cache: %w", key, err)
	}
	return nil
}
