package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisLimiter counts requests per key in fixed windows shared by every
// instance pointing at the same redis.
type RedisLimiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
	now      func() time.Time
}

func NewRedisLimiter(client *redis.Client, requests int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		requests: requests,
		window:   window,
		now:      time.Now,
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := r.now()
	start := now.Truncate(r.window)
	windowKey := redisKeyPrefix + key + ":" + strconv.FormatInt(start.Unix(), 10)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, windowKey)
		pipe.Expire(ctx, windowKey, r.window)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit incr: %w", err)
	}

	count := int(incr.Val())
	decision := Decision{Limit: r.requests}
	if count <= r.requests {
		decision.Allowed = true
		decision.Remaining = r.requests - count
		return decision, nil
	}
	decision.RetryAfter = start.Add(r.window).Sub(now)
	return decision, nil
}
