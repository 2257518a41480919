package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, "rl", nil), mr
}

func TestRedisLimiterDeniesOverBurst(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	rule := RateLimitRule{Rate: 1, Burst: 3}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if ok, _ := limiter.Allow(ctx, "u1|CHAT", rule); !ok {
			t.Fatalf("request %d expected allowed", i+1)
		}
	}
	ok, retry := limiter.Allow(ctx, "u1|CHAT", rule)
	if ok {
		t.Fatalf("expected request over burst to be denied")
	}
	if retry <= 0 || retry > 3*time.Second {
		t.Fatalf("unexpected retry-after %v", retry)
	}

	if ok, _ := limiter.Allow(ctx, "u2|CHAT", rule); !ok {
		t.Fatalf("other principals must have their own window")
	}

	now = now.Add(3 * time.Second)
	if ok, _ := limiter.Allow(ctx, "u1|CHAT", rule); !ok {
		t.Fatalf("expected next window to allow")
	}
}

func TestRedisLimiterSetsExpiry(t *testing.T) {
	limiter, mr := newTestRedisLimiter(t)
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }
	rule := RateLimitRule{Rate: 2, Burst: 10}

	if ok, _ := limiter.Allow(context.Background(), "u1|DEFAULT", rule); !ok {
		t.Fatalf("expected allowed")
	}
	idx := now.UnixNano() / int64(windowFor(rule))
	key := limiter.buildKey("u1|DEFAULT", idx)
	if !mr.Exists(key) {
		t.Fatalf("expected key %s to exist; keys=%v", key, mr.Keys())
	}
	if ttl := mr.TTL(key); ttl <= 0 {
		t.Fatalf("expected ttl on %s, got %v", key, ttl)
	}
}

func TestRedisLimiterFallsBackToMemory(t *testing.T) {
	limiter, mr := newTestRedisLimiter(t)
	mr.Close()

	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter.fallback = NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 1}
	ctx := context.Background()

	if ok, _ := limiter.Allow(ctx, "u1", rule); !ok {
		t.Fatalf("expected fallback to allow first request")
	}
	if ok, _ := limiter.Allow(ctx, "u1", rule); ok {
		t.Fatalf("expected fallback to deny second request")
	}
}
