package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// LimitResult is the outcome of a rate limit check.
type LimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// Checker is the counter-store interface the middleware depends on.
// Tests inject an in-memory fake; production uses the Redis Limiter.
type Checker interface {
	Check(ctx context.Context, key string, limit int64, window time.Duration) (LimitResult, error)
}

// Limiter performs sliding-window rate limiting backed by Redis sorted sets.
type Limiter struct {
	rdb *redis.Client
}

// NewLimiter creates a new rate limiter. If rdb is nil, all checks pass
// (fail open) — the service stays available when Redis is not deployed.
func NewLimiter(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb}
}

// slidingWindowScript atomically: removes expired entries, records this
// call, returns the window count. Every call is recorded, allowed or
// denied, so sustained over-quota traffic keeps the window full instead of
// being re-admitted as soon as the oldest allowed entry ages out.
// KEYS[1] = sorted set key
// ARGV[1] = window start (unix micro)
// ARGV[2] = now (unix micro) — used as both score and member uniqueness
// ARGV[3] = TTL seconds for the key
// Returns: count including this call
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
redis.call('ZADD', key, now, now .. ':' .. math.random(1000000))
redis.call('EXPIRE', key, ttl)
return redis.call('ZCARD', key)
`)

// Check performs a sliding-window rate limit check.
// key: the rate limit bucket identifier (client IP)
// limit: maximum allowed requests in the window
// window: the sliding window duration
//
// Outage policy: if Redis is unreachable the check fails open with a logged
// warning rather than rejecting traffic.
func (l *Limiter) Check(ctx context.Context, key string, limit int64, window time.Duration) (LimitResult, error) {
	now := time.Now()

	if l.rdb == nil {
		return LimitResult{Allowed: true, Limit: limit, Remaining: limit - 1, ResetAt: now.Add(window)}, nil
	}

	windowStart := now.Add(-window).UnixMicro()
	nowMicro := now.UnixMicro()
	ttlSecs := int64(window.Seconds()) + 1

	redisKey := fmt.Sprintf("billchat:rl:%s", key)

	count, err := slidingWindowScript.Run(ctx, l.rdb, []string{redisKey},
		windowStart, nowMicro, ttlSecs,
	).Int64()
	if err != nil {
		slog.Warn("rate limit store unreachable, failing open", "error", err, "key", key)
		return LimitResult{Allowed: true, Limit: limit, Remaining: limit, ResetAt: now.Add(window)}, nil
	}

	return resultFromCount(count, limit, now, window), nil
}

// resultFromCount maps the post-increment window count to a limit decision.
// count includes the current call, so the first call over quota sees
// count == limit+1 and is denied.
func resultFromCount(count, limit int64, now time.Time, window time.Duration) LimitResult {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return LimitResult{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   now.Add(window),
	}
}
