package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisLimiter(t *testing.T, max int, window time.Duration) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(NewRedisStore(client, "ratelimit:test"), max, window), mr
}

func TestRedisStoreBlocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newRedisLimiter(t, 3, time.Minute)

	id := "10.0.0.5-ua"
	for i := 0; i < 3; i++ {
		if limited, err := limiter.IsLimited(ctx, id); err != nil || limited {
			t.Fatalf("attempt %d: limited=%v err=%v", i, limited, err)
		}
		if err := limiter.RecordAttempt(ctx, id); err != nil {
			t.Fatalf("RecordAttempt failed: %v", err)
		}
	}

	limited, err := limiter.IsLimited(ctx, id)
	if err != nil {
		t.Fatalf("IsLimited failed: %v", err)
	}
	if !limited {
		t.Error("expected client to be limited after max attempts")
	}
}

func TestRedisStoreWindowExpiry(t *testing.T) {
	ctx := context.Background()
	limiter, mr := newRedisLimiter(t, 1, time.Minute)

	id := "10.0.0.6-ua"
	if err := limiter.RecordAttempt(ctx, id); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	if limited, _ := limiter.IsLimited(ctx, id); !limited {
		t.Fatal("expected client to be limited")
	}

	// miniredis advances TTLs manually
	mr.FastForward(2 * time.Minute)

	if limited, _ := limiter.IsLimited(ctx, id); limited {
		t.Error("expected limit to clear after the key expired")
	}
}

func TestRedisStoreReset(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newRedisLimiter(t, 2, time.Minute)

	id := "10.0.0.7-ua"
	limiter.RecordAttempt(ctx, id)
	limiter.RecordAttempt(ctx, id)

	if err := limiter.Reset(ctx, id); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	status, err := limiter.Status(ctx, id)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Limited || status.Remaining != 2 {
		t.Errorf("status after reset = %+v, want unlimited with full budget", status)
	}
}
