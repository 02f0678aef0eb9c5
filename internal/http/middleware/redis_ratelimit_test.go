package middleware

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRedisDecision(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	d := redisDecision(1, 40*time.Second, 3, time.Minute, now)
	if !d.Allowed || d.Count != 1 || !d.WindowEnd.Equal(now.Add(40*time.Second)) {
		t.Fatalf("first hit = %+v", d)
	}
	if d := redisDecision(3, time.Second, 3, time.Minute, now); !d.Allowed {
		t.Fatalf("hit at the limit must pass: %+v", d)
	}
	if d := redisDecision(4, time.Second, 3, time.Minute, now); d.Allowed || d.Count != 4 {
		t.Fatalf("hit over the limit must be denied: %+v", d)
	}
	// TTL reports -1 for no expiry and -2 for a missing key.
	for _, ttl := range []time.Duration{-1, -2, 0} {
		if d := redisDecision(2, ttl, 3, time.Minute, now); !d.WindowEnd.Equal(now.Add(time.Minute)) {
			t.Fatalf("ttl %v: window end = %v", ttl, d.WindowEnd)
		}
	}
}

// Runs only against a disposable Redis, for example:
//
//	TEST_REDIS_ADDR=localhost:6379
func TestRedisRateLimiter_WindowExpires(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	limiter, err := NewRedisRateLimiter(addr, "", 0, quiet())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer limiter.Close()
	rl := limiter.(*redisRateLimiter)

	key := "test:" + uuid.NewString()
	ctx := context.Background()
	defer rl.client.Del(ctx, rl.prefix+key)

	for i := 1; i <= 2; i++ {
		if d := rl.Allow(key, 2, 2*time.Second); !d.Allowed || d.Count != i {
			t.Fatalf("request %d: %+v", i, d)
		}
	}
	if d := rl.Allow(key, 2, 2*time.Second); d.Allowed {
		t.Fatal("third request in window must be denied")
	}

	ttl, err := rl.client.TTL(ctx, rl.prefix+key).Result()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl <= 0 || ttl > 2*time.Second {
		t.Fatalf("counter must carry the window ttl, got %v", ttl)
	}

	// Later hits must not push the expiry out.
	time.Sleep(2500 * time.Millisecond)
	if d := rl.Allow(key, 2, 2*time.Second); !d.Allowed || d.Count != 1 {
		t.Fatalf("new window should reset the count: %+v", d)
	}
}
