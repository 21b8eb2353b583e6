// Package revocation keeps the shared blocklist of revoked token identifiers.
//
// Entries live in Redis as <prefix><jti> = "blocked" with a TTL no longer than
// the token they block. A present entry means the jti must be rejected
// regardless of signature validity. Revoke returns only after Redis has
// acknowledged the write, so verifications that start afterwards observe it.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Marker is the value stored for every revoked jti.
const Marker = "blocked"

const defaultPrefix = "authcore:revoked:"

// ErrRedisUnavailable wraps any Redis failure.
var ErrRedisUnavailable = errors.New("revocation store unavailable")

// Store is a Redis-backed revocation registry.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore returns a Store that namespaces keys with prefix. An empty prefix
// selects "authcore:revoked:".
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(jti string) string {
	return s.prefix + jti
}

// Revoke blocks jti for ttl, rounded up to whole seconds. A non-positive ttl
// means the token has already expired and nothing is written.
func (s *Store) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return errors.New("revocation requires a jti")
	}
	if ttl <= 0 {
		return nil
	}
	if rem := ttl % time.Second; rem != 0 {
		ttl += time.Second - rem
	}

	if err := s.redis.Set(ctx, s.key(jti), Marker, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether jti has a live revocation entry.
func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, err := s.redis.Get(ctx, s.key(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return true, nil
}

// Ping measures round-trip latency to Redis.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
