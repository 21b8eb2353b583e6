package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds limiter tuning.
type Config struct {
	// MaxRequests is the budget per subject per window.
	MaxRequests int
	Window      time.Duration
	// PerIP also counts requests per client IP against the same budget.
	PerIP bool
}

// Limiter counts requests per scope and subject in Redis.
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
	config Config
}

// New returns a Limiter. prefix namespaces every key.
func New(client redis.UniversalClient, prefix string, cfg Config) *Limiter {
	return &Limiter{redis: client, prefix: prefix, config: cfg}
}

// Allow records one request for subject, and for ip when per-IP counting is
// on and ip is known. Every counter is incremented even when an earlier one
// is already over budget.
func (l *Limiter) Allow(ctx context.Context, scope, subject, ip string) error {
	count, err := l.incrementWithTTL(ctx, l.subjectKey(scope, subject))
	if err != nil {
		return err
	}
	limited := count > int64(l.config.MaxRequests)

	if l.config.PerIP && ip != "" {
		count, err = l.incrementWithTTL(ctx, l.ipKey(scope, ip))
		if err != nil {
			return err
		}
		limited = limited || count > int64(l.config.MaxRequests)
	}

	if limited {
		return ErrRateLimited
	}
	return nil
}

// Attempts returns the current count for subject. Missing keys count as zero.
func (l *Limiter) Attempts(ctx context.Context, scope, subject string) (int, error) {
	count, err := l.redis.Get(ctx, l.subjectKey(scope, subject)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed window: only the first hit sets the expiry.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}

func (l *Limiter) subjectKey(scope, subject string) string {
	return l.prefix + "mt:" + scope + ":e:" + subject
}

func (l *Limiter) ipKey(scope, ip string) string {
	return l.prefix + "mt:" + scope + ":ip:" + ip
}
