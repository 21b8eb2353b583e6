package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, "test:", cfg), mr
}

func TestAllowWithinBudget(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxRequests: 2, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.Allow(ctx, "reset", "a@example.com", ""); err != nil {
			t.Fatalf("request %d: unexpected error %v", i, err)
		}
	}
	if err := l.Allow(ctx, "reset", "a@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	if ttl := mr.TTL("test:mt:reset:e:a@example.com"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected window ttl %v", ttl)
	}
}

func TestWindowExpires(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxRequests: 1, Window: time.Minute})
	ctx := context.Background()

	_ = l.Allow(ctx, "verify", "a@example.com", "")
	if err := l.Allow(ctx, "verify", "a@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	mr.FastForward(time.Minute + time.Second)
	if err := l.Allow(ctx, "verify", "a@example.com", ""); err != nil {
		t.Fatalf("expected a fresh window, got %v", err)
	}
}

func TestScopesAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxRequests: 1, Window: time.Minute})
	ctx := context.Background()

	_ = l.Allow(ctx, "reset", "a@example.com", "")
	if err := l.Allow(ctx, "verify", "a@example.com", ""); err != nil {
		t.Fatalf("scopes should not share budgets, got %v", err)
	}
}

func TestPerIPCountsAcrossSubjects(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxRequests: 2, Window: time.Minute, PerIP: true})
	ctx := context.Background()

	_ = l.Allow(ctx, "reset", "a@example.com", "10.0.0.1")
	_ = l.Allow(ctx, "reset", "b@example.com", "10.0.0.1")
	if err := l.Allow(ctx, "reset", "c@example.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected the IP budget to be spent, got %v", err)
	}
	if err := l.Allow(ctx, "reset", "c@example.com", "10.0.0.2"); err != nil {
		t.Fatalf("another IP should pass, got %v", err)
	}
}

func TestAttempts(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxRequests: 5, Window: time.Minute})
	ctx := context.Background()

	if n, err := l.Attempts(ctx, "reset", "a@example.com"); err != nil || n != 0 {
		t.Fatalf("expected 0 attempts, got %d (%v)", n, err)
	}
	_ = l.Allow(ctx, "reset", "a@example.com", "")
	_ = l.Allow(ctx, "reset", "a@example.com", "")
	if n, _ := l.Attempts(ctx, "reset", "a@example.com"); n != 2 {
		t.Fatalf("expected 2 attempts, got %d", n)
	}
}

func TestRedisDown(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxRequests: 5, Window: time.Minute})
	mr.Close()
	if err := l.Allow(context.Background(), "reset", "a@example.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
