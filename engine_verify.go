package authcore

import (
	"context"
	"time"

	internalflows "github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/jwt"
	"go.uber.org/zap"
)

// Authenticate verifies a bearer token for the given intent and returns the
// principal it names. It performs no writes.
//
// Failures map to ErrAccessTokenRequired or ErrRefreshTokenRequired (missing
// token or wrong kind), ErrInvalidToken (bad signature, malformed, expired),
// ErrRevokedToken (blocklisted jti) and ErrInternal (blocklist unreachable).
func (e *Engine) Authenticate(ctx context.Context, tokenStr string, intent Intent) (*Principal, error) {
	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
		defer func() {
			e.metrics.Observe(MetricVerifyLatency, time.Since(start))
		}()
	}

	res := internalflows.RunVerify(ctx, tokenStr, flowIntent(intent), e.verifyFlowDeps())
	if res.Failure == internalflows.VerifyFailureNone {
		return principalFromClaims(res.Claims), nil
	}

	err := e.mapVerifyFailure(res, intent)
	userID := ""
	if res.Claims != nil {
		userID = res.Claims.User.ID
	}
	e.emitAudit(ctx, auditEventTokenRejected, false, userID, err, func() map[string]string {
		return map[string]string{
			"reason": res.Failure.String(),
			"intent": intent.String(),
		}
	})
	return nil, err
}

func (e *Engine) verifyFlowDeps() internalflows.VerifyDeps {
	return internalflows.VerifyDeps{
		Decode:    e.tokens.Decode,
		IsRevoked: e.revocations.IsRevoked,
	}
}

func (e *Engine) mapVerifyFailure(res internalflows.VerifyResult, intent Intent) error {
	switch res.Failure {
	case internalflows.VerifyFailureMissing:
		e.metricInc(MetricTokenMissing)
		return intentRequiredError(intent)
	case internalflows.VerifyFailureDecode:
		e.metricInc(MetricTokenInvalid)
		return ErrInvalidToken
	case internalflows.VerifyFailureRevoked:
		e.metricInc(MetricTokenRevoked)
		return ErrRevokedToken
	case internalflows.VerifyFailureStore:
		e.metricInc(MetricRevocationStoreError)
		e.logger.Error("revocation lookup failed",
			zap.String("jti", res.Claims.JTI()),
			zap.Error(res.Err),
		)
		return ErrInternal
	case internalflows.VerifyFailureIntent:
		e.metricInc(MetricTokenIntentMismatch)
		return intentRequiredError(intent)
	default:
		return ErrInvalidToken
	}
}

func intentRequiredError(intent Intent) error {
	if intent == RequireRefresh {
		return ErrRefreshTokenRequired
	}
	return ErrAccessTokenRequired
}

func flowIntent(intent Intent) internalflows.VerifyIntent {
	if intent == RequireRefresh {
		return internalflows.VerifyRefresh
	}
	return internalflows.VerifyAccess
}

func principalFromClaims(c *jwt.Claims) *Principal {
	return &Principal{
		User: TokenUser{
			ID:    c.User.ID,
			Email: c.User.Email,
			Role:  c.User.Role,
		},
		JTI:       c.JTI(),
		ExpiresAt: c.Expiry(),
		Kind:      c.Kind(),
	}
}
