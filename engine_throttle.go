package authcore

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/internal/rate"
)

// Mail throttle scopes, each with its own budget.
const (
	MailScopeVerification  = "verify"
	MailScopePasswordReset = "reset"
)

// throttleMail charges one mail request against email and the caller's IP.
// Unknown emails are charged too, so the response does not depend on whether
// an account exists. A counter failure lets the request through.
func (e *Engine) throttleMail(ctx context.Context, scope, email string) error {
	if e.mailLimiter == nil || email == "" {
		return nil
	}

	err := e.mailLimiter.Allow(ctx, scope, email, clientIPFromContext(ctx))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		e.metricInc(MetricMailThrottled)
		e.emitAudit(ctx, auditEventMailThrottled, false, "", ErrTooManyRequests, func() map[string]string {
			return map[string]string{"scope": scope}
		})
		return ErrTooManyRequests
	default:
		e.warn("mail throttle unavailable", "scope", scope, "error", err)
		return nil
	}
}

// MailAttempts reports how many mail requests email has made in the current
// window for scope (MailScopeVerification or MailScopePasswordReset).
func (e *Engine) MailAttempts(ctx context.Context, scope, email string) (int, error) {
	if e.mailLimiter == nil {
		return 0, nil
	}
	n, err := e.mailLimiter.Attempts(ctx, scope, normalizeEmail(email))
	if err != nil {
		return 0, ErrInternal
	}
	return n, nil
}
