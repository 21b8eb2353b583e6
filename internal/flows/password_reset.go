package flows

import (
	"context"
	"errors"
)

type PasswordResetMetrics struct {
	PasswordResetRequest        int
	PasswordResetConfirmSuccess int
	PasswordResetConfirmFailure int
}

type PasswordResetEvents struct {
	PasswordResetRequest string
	PasswordResetConfirm string
}

type PasswordResetErrors struct {
	InvalidRequest   error
	InvalidToken     error
	PasswordMismatch error
	PasswordPolicy   error
	UserNotFound     error
	Internal         error
}

// PasswordResetDeps captures reset link dependencies.
type PasswordResetDeps struct {
	MinPasswordLength int
	MaxPasswordLength int

	CreateToken func(email string) (string, error)
	DecodeToken func(token string) (string, string, error)
	Deliver     func(ctx context.Context, email, token string) error

	GetUserByEmail     func(context.Context, string) (User, error)
	HashPassword       func(string) (string, error)
	UpdatePasswordHash func(context.Context, string, string) error

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      WarnFunc

	Metrics PasswordResetMetrics
	Events  PasswordResetEvents
	Errors  PasswordResetErrors
}

// RunRequestPasswordReset mails a reset link when the account exists. The
// result is the same for registered and unknown emails, and a delivery
// failure is only logged.
func RunRequestPasswordReset(ctx context.Context, email string, deps PasswordResetDeps) error {
	normalizePasswordResetDeps(&deps)

	if email == "" {
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, false, "", deps.Errors.InvalidRequest, func() map[string]string {
			return map[string]string{
				"reason": "empty_email",
			}
		})
		return deps.Errors.InvalidRequest
	}

	deps.MetricInc(deps.Metrics.PasswordResetRequest)

	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil {
		if isContextErr(err) {
			return err
		}
		if !errors.Is(err, deps.Errors.UserNotFound) {
			deps.Warn("reset user lookup failed", "error", err)
			return deps.Errors.Internal
		}
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, true, "", nil, func() map[string]string {
			return map[string]string{
				"enumeration_safe": "true",
			}
		})
		return nil
	}

	token, err := deps.CreateToken(user.Email)
	if err != nil {
		deps.Warn("reset token create failed", "user_id", user.ID, "error", err)
		return deps.Errors.Internal
	}
	if err := deps.Deliver(ctx, user.Email, token); err != nil {
		deps.Warn("reset mail not sent", "user_id", user.ID, "error", err)
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, false, user.ID, deps.Errors.Internal, func() map[string]string {
			return map[string]string{
				"reason": "delivery_failed",
			}
		})
		return nil
	}

	deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, true, user.ID, nil, nil)
	return nil
}

// RunConfirmPasswordReset replaces the password of the account named by token.
// Passwords are compared before the token is decoded.
func RunConfirmPasswordReset(ctx context.Context, token, newPassword, confirmPassword string, deps PasswordResetDeps) error {
	normalizePasswordResetDeps(&deps)

	fail := func(userID, reason string, err error) error {
		deps.MetricInc(deps.Metrics.PasswordResetConfirmFailure)
		deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, false, userID, err, func() map[string]string {
			return map[string]string{
				"reason": reason,
			}
		})
		return err
	}

	if newPassword != confirmPassword {
		return fail("", "password_mismatch", deps.Errors.PasswordMismatch)
	}
	if !CheckPasswordLength(newPassword, deps.MinPasswordLength, deps.MaxPasswordLength) {
		return fail("", "password_policy", deps.Errors.PasswordPolicy)
	}

	email, reason, err := deps.DecodeToken(token)
	if err != nil {
		return fail("", reason, deps.Errors.InvalidToken)
	}

	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil {
		if isContextErr(err) {
			return err
		}
		if errors.Is(err, deps.Errors.UserNotFound) {
			return fail("", "user_not_found", deps.Errors.UserNotFound)
		}
		deps.Warn("reset user lookup failed", "error", err)
		return fail("", "user_lookup_failed", deps.Errors.Internal)
	}

	hash, err := deps.HashPassword(newPassword)
	if err != nil {
		deps.Warn("reset password hash failed", "user_id", user.ID, "error", err)
		return fail(user.ID, "hash_failed", deps.Errors.Internal)
	}
	if err := deps.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		if isContextErr(err) {
			return err
		}
		deps.Warn("reset password update failed", "user_id", user.ID, "error", err)
		return fail(user.ID, "update_failed", deps.Errors.Internal)
	}

	deps.MetricInc(deps.Metrics.PasswordResetConfirmSuccess)
	deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, true, user.ID, nil, nil)
	return nil
}

func normalizePasswordResetDeps(deps *PasswordResetDeps) {
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
