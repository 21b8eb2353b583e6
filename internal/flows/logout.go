package flows

import (
	"context"
	"time"
)

// RevokeDeps captures blocklist write dependencies.
type RevokeDeps struct {
	Now    func() time.Time
	MaxTTL time.Duration
	// Leeway is how long past exp the codec still accepts a token.
	Leeway time.Duration
	Revoke func(context.Context, string, time.Duration) error
}

// RevocationTTL is the blocklist lifetime for a token expiring at expiresAt:
// its remaining lifetime plus leeway, capped at maxTTL+leeway when maxTTL > 0.
func RevocationTTL(now, expiresAt time.Time, maxTTL, leeway time.Duration) time.Duration {
	if leeway < 0 {
		leeway = 0
	}
	ttl := expiresAt.Add(leeway).Sub(now)
	if maxTTL > 0 && ttl > maxTTL+leeway {
		ttl = maxTTL + leeway
	}
	return ttl
}

// RunRevoke writes the blocklist entry for jti. Tokens past exp+leeway are
// skipped since decode rejects them anyway.
func RunRevoke(ctx context.Context, jti string, expiresAt time.Time, deps RevokeDeps) (time.Duration, error) {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	ttl := RevocationTTL(now(), expiresAt, deps.MaxTTL, deps.Leeway)
	if ttl <= 0 {
		return 0, nil
	}
	if err := deps.Revoke(ctx, jti, ttl); err != nil {
		return 0, err
	}
	return ttl, nil
}
