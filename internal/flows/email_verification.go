package flows

import (
	"context"
	"errors"
)

type EmailVerificationMetrics struct {
	EmailVerificationRequest int
	EmailVerificationSuccess int
	EmailVerificationFailure int
}

type EmailVerificationEvents struct {
	EmailVerificationRequest string
	EmailVerificationConfirm string
}

type EmailVerificationErrors struct {
	InvalidRequest error
	InvalidToken   error
	UserNotFound   error
	Internal       error
}

// EmailVerificationDeps captures verification link dependencies.
type EmailVerificationDeps struct {
	CreateToken func(email string) (string, error)
	// DecodeToken returns the email bound to the token and a short reason
	// on failure ("expired" or "invalid").
	DecodeToken func(token string) (string, string, error)
	Deliver     func(ctx context.Context, email, token string) error

	GetUserByEmail func(context.Context, string) (User, error)
	MarkVerified   func(context.Context, string) error

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      WarnFunc

	Metrics EmailVerificationMetrics
	Events  EmailVerificationEvents
	Errors  EmailVerificationErrors
}

// RunRequestEmailVerification mails a verification link when the account
// exists and is unverified. Unknown and already verified accounts succeed
// silently so the response does not reveal which emails are registered.
func RunRequestEmailVerification(ctx context.Context, email string, deps EmailVerificationDeps) error {
	normalizeEmailVerificationDeps(&deps)

	if email == "" {
		deps.EmitAudit(ctx, deps.Events.EmailVerificationRequest, false, "", deps.Errors.InvalidRequest, func() map[string]string {
			return map[string]string{
				"reason": "empty_email",
			}
		})
		return deps.Errors.InvalidRequest
	}

	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil {
		if isContextErr(err) {
			return err
		}
		if !errors.Is(err, deps.Errors.UserNotFound) {
			deps.Warn("verification user lookup failed", "error", err)
			return deps.Errors.Internal
		}
		deps.EmitAudit(ctx, deps.Events.EmailVerificationRequest, true, "", nil, func() map[string]string {
			return map[string]string{
				"enumeration_safe": "true",
			}
		})
		deps.MetricInc(deps.Metrics.EmailVerificationRequest)
		return nil
	}

	if user.Verified {
		deps.EmitAudit(ctx, deps.Events.EmailVerificationRequest, true, user.ID, nil, func() map[string]string {
			return map[string]string{
				"noop": "already_verified",
			}
		})
		deps.MetricInc(deps.Metrics.EmailVerificationRequest)
		return nil
	}

	// Unknown emails always succeed, so a send failure must too.
	if err := SendEmailVerification(ctx, user, deps); err != nil {
		if isContextErr(err) {
			return err
		}
		deps.Warn("verification mail not sent", "user_id", user.ID, "error", err)
	}
	return nil
}

// SendEmailVerification mints and delivers a link for user without any
// lookup. Signup calls it directly with the freshly created account.
func SendEmailVerification(ctx context.Context, user User, deps EmailVerificationDeps) error {
	normalizeEmailVerificationDeps(&deps)

	token, err := deps.CreateToken(user.Email)
	if err != nil {
		deps.Warn("verification token create failed", "user_id", user.ID, "error", err)
		return deps.Errors.Internal
	}
	if err := deps.Deliver(ctx, user.Email, token); err != nil {
		deps.EmitAudit(ctx, deps.Events.EmailVerificationRequest, false, user.ID, deps.Errors.Internal, func() map[string]string {
			return map[string]string{
				"reason": "delivery_failed",
			}
		})
		return err
	}

	deps.EmitAudit(ctx, deps.Events.EmailVerificationRequest, true, user.ID, nil, nil)
	deps.MetricInc(deps.Metrics.EmailVerificationRequest)
	return nil
}

// RunConfirmEmailVerification marks the account named by token verified.
// Confirming an already verified account succeeds without a write.
func RunConfirmEmailVerification(ctx context.Context, token string, deps EmailVerificationDeps) (User, error) {
	normalizeEmailVerificationDeps(&deps)

	fail := func(userID, reason string, err error) (User, error) {
		deps.MetricInc(deps.Metrics.EmailVerificationFailure)
		deps.EmitAudit(ctx, deps.Events.EmailVerificationConfirm, false, userID, err, func() map[string]string {
			return map[string]string{
				"reason": reason,
			}
		})
		return User{}, err
	}

	email, reason, err := deps.DecodeToken(token)
	if err != nil {
		return fail("", reason, deps.Errors.InvalidToken)
	}

	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil {
		if isContextErr(err) {
			return User{}, err
		}
		if errors.Is(err, deps.Errors.UserNotFound) {
			return fail("", "user_not_found", deps.Errors.UserNotFound)
		}
		deps.Warn("verification user lookup failed", "error", err)
		return fail("", "user_lookup_failed", deps.Errors.Internal)
	}

	if !user.Verified {
		if err := deps.MarkVerified(ctx, user.ID); err != nil {
			if isContextErr(err) {
				return User{}, err
			}
			deps.Warn("mark verified failed", "user_id", user.ID, "error", err)
			return fail(user.ID, "update_failed", deps.Errors.Internal)
		}
		user.Verified = true
	}

	deps.MetricInc(deps.Metrics.EmailVerificationSuccess)
	deps.EmitAudit(ctx, deps.Events.EmailVerificationConfirm, true, user.ID, nil, nil)
	return user, nil
}

func normalizeEmailVerificationDeps(deps *EmailVerificationDeps) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.Warn == nil {
		deps.Warn = noopWarn
	}
}
