package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	perr "gitstats/internal/platform/errors"
	"gitstats/internal/platform/logger"
	"gitstats/internal/platform/metrics"
)

// Redis is a shared TTL cache for multi instance deployments
// backend failures degrade to miss, never to request failure
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
	obs metrics.Observer
	log logger.Logger
}

// NewRedis connects using a redis URL (redis://[:pass@]host:port/db)
func NewRedis(rawURL string, ttl time.Duration, obs metrics.Observer) (*Redis, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "parse redis url")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Redis{
		rdb: redis.NewClient(opt),
		ttl: ttl,
		obs: metrics.OrNop(obs),
		log: *logger.Named("cache.redis"),
	}, nil
}

// Ping verifies connectivity at startup
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "redis ping")
	}
	return nil
}

// Get implements Cache
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn().Err(err).Str("key", key).Msg("redis get failed")
		}
		r.obs.CacheMiss()
		return nil, false
	}
	r.obs.CacheHit()
	return val, true
}

// Set implements Cache
func (r *Redis) Set(ctx context.Context, key string, val []byte) {
	if err := r.rdb.Set(ctx, key, val, r.ttl).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("redis set failed")
	}
}

// Delete implements Cache
func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("redis del failed")
	}
}

// Len implements Cache, approximate across the whole database
func (r *Redis) Len() int {
	n, err := r.rdb.DBSize(context.Background()).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

// Close releases the connection pool
func (r *Redis) Close() error { return r.rdb.Close() }
