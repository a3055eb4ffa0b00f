package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/medbook/backend/internal/domain/providers"
	redisclient "github.com/medbook/backend/internal/infrastructure/clients/redis"
)

func unreachableAdapter(t *testing.T) *RedisAdapter {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisAdapter(redisclient.NewClientFromRedis(rdb), "medbook:").(*RedisAdapter)
}

func TestRedisAdapter_KeyPrefix(t *testing.T) {
	adapter := unreachableAdapter(t)
	assert.Equal(t, "medbook:search:embedding:abc", adapter.key("search:embedding:abc"))
}

func TestRedisAdapter_ConnectionErrorIsNotAMiss(t *testing.T) {
	adapter := unreachableAdapter(t)
	ctx := context.Background()

	_, err := adapter.Get(ctx, "k")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, providers.ErrCacheMiss))

	assert.ErrorContains(t, adapter.Set(ctx, "k", []byte("v"), 0), "failed to set k in cache")
	assert.ErrorContains(t, adapter.Delete(ctx, "k"), "failed to delete k from cache")
}
