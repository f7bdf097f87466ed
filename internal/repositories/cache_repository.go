package repositories

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

type CacheRepositoryInterface interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// NoopCacheRepository используется, когда Redis выключен: любое чтение - промах (redis.Nil),
// версия всегда 0.
type NoopCacheRepository struct{}

func NewNoopCacheRepository() CacheRepositoryInterface {
	return NoopCacheRepository{}
}

func (NoopCacheRepository) Get(context.Context, string) (string, error) { return "", redis.Nil }

func (NoopCacheRepository) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (NoopCacheRepository) Incr(context.Context, string) (int64, error) { return 0, nil }
