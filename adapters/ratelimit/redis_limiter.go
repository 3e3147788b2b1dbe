package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cardpass/gatekeeper/core"
	"github.com/cardpass/gatekeeper/ports"
)

// Evict-count-append as one script so concurrent admissions for the same key
// cannot both act on a stale count.
var slidingWindow = redis.NewScript(`
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
if redis.call("ZCARD", KEYS[1]) >= tonumber(ARGV[2]) then
	return 0
end
redis.call("ZADD", KEYS[1], ARGV[3], ARGV[4])
redis.call("PEXPIRE", KEYS[1], ARGV[5])
return 1
`)

// RedisLimiter is a Redis-backed sliding-window limiter for multi-instance
// deployments, keeping one sorted set of request timestamps per key.
type RedisLimiter struct {
	client  *redis.Client
	prefix  string
	maxHits int
	window  time.Duration
}

// NewRedisLimiter creates a limiter over the shared Redis client.
func NewRedisLimiter(client *redis.Client, maxHits int, window time.Duration) *RedisLimiter {
	if maxHits <= 0 {
		maxHits = defaultMaxHits
	}
	if window <= 0 {
		window = defaultWindow
	}

	return &RedisLimiter{
		client:  client,
		prefix:  "gatekeeper:ratelimit:",
		maxHits: maxHits,
		window:  window,
	}
}

// Admit runs the window script for the (identity, scope) key.
func (l *RedisLimiter) Admit(ctx context.Context, identity, scope string) error {
	key := l.prefix + identity + ":" + scope
	now := time.Now().UTC()
	boundary := now.Add(-l.window)

	allowed, err := slidingWindow.Run(ctx, l.client, []string{key},
		boundary.UnixMilli(),
		l.maxHits,
		now.UnixMilli(),
		uuid.New().String(),
		l.window.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	if allowed == 0 {
		return core.ErrTooManyRequests
	}

	return nil
}

var _ ports.RateLimiter = (*RedisLimiter)(nil)
