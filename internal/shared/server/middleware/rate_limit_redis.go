package middleware

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"assistant-backend/internal/shared/telemetry"
)

var redisIncrScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter is a fixed-window limiter shared across instances. A rule
// allows Burst requests per window of Burst/Rate seconds. Redis errors fall
// back to the in-process limiter.
type RedisLimiter struct {
	client   redis.Scripter
	prefix   string
	fallback *RateLimiter
	now      func() time.Time
}

// NewRedisLimiter constructs a RedisLimiter.
func NewRedisLimiter(client redis.Scripter, prefix string, fallback *RateLimiter) *RedisLimiter {
	if fallback == nil {
		fallback = NewRateLimiter(nil)
	}
	return &RedisLimiter{
		client:   client,
		prefix:   strings.TrimSpace(prefix),
		fallback: fallback,
		now:      time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || l.client == nil {
		return true, 0
	}
	if rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	window := windowFor(rule)
	now := l.now()
	idx := now.UnixNano() / int64(window)
	reset := time.Unix(0, (idx+1)*int64(window))

	count, err := l.incr(ctx, l.buildKey(key, idx), window)
	if err != nil {
		telemetry.Warn("ratelimit.redis_failed", map[string]any{"err": err.Error()})
		return l.fallback.Allow(ctx, key, rule)
	}
	if count > int64(rule.Burst) {
		return false, reset.Sub(now)
	}
	return true, 0
}

func (l *RedisLimiter) incr(ctx context.Context, redisKey string, window time.Duration) (int64, error) {
	ttl := int64(math.Ceil(window.Seconds())) + 1
	res, err := redisIncrScript.Run(ctx, l.client, []string{redisKey}, ttl).Result()
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, errors.New("rate limit redis: unexpected response type")
	}
}

func (l *RedisLimiter) buildKey(key string, idx int64) string {
	idxStr := strconv.FormatInt(idx, 10)
	if l.prefix == "" {
		return key + ":" + idxStr
	}
	return l.prefix + ":" + key + ":" + idxStr
}

func windowFor(rule RateLimitRule) time.Duration {
	w := time.Duration(float64(rule.Burst) / rule.Rate * float64(time.Second))
	if w < time.Second {
		w = time.Second
	}
	return w
}
