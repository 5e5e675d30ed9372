package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	applog "mise/internal/log"
)

const (
	defaultRedisLockTTL     = 30 * time.Second
	defaultRedisLockBackoff = 25 * time.Millisecond
	redisLockPrefix         = "mise:lock:"
)

// RedisLocker shares sale locks between service instances.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

// NewRedisLocker wraps an existing redis client. ttl bounds how long a crashed
// holder can block other instances; zero selects the default.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultRedisLockTTL
	}
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl}
}

func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalizeKeys(keys)
	opts := &redislock.Options{RetryStrategy: redislock.LinearBackoff(defaultRedisLockBackoff)}

	held := make([]*redislock.Lock, 0, len(keys))
	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			// release must outlive a cancelled request context
			if err := held[i].Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				applog.Warn(ctx, "failed to release redis lock", "key", held[i].Key(), "error", err)
			}
		}
	}

	for _, key := range keys {
		lock, err := l.client.Obtain(ctx, redisLockPrefix+key, l.ttl, opts)
		if err != nil {
			releaseAll()
			if errors.Is(err, redislock.ErrNotObtained) && ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
		held = append(held, lock)
	}

	return releaseAll, nil
}
