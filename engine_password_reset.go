package authcore

import (
	"context"

	internalflows "github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/notify"
	"github.com/MrEthical07/authcore/purpose"
)

// PasswordResetLink returns the absolute URL mailed for token.
func (e *Engine) PasswordResetLink(token string) string {
	return e.link("/password-reset-confirm/", token)
}

// RequestPasswordReset mails a reset link when email belongs to an account.
// The outcome is identical for unknown emails.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := e.throttleMail(ctx, MailScopePasswordReset, email); err != nil {
		return err
	}
	return internalflows.RunRequestPasswordReset(ctx, email, e.passwordResetFlowDeps())
}

// ConfirmPasswordReset sets a new password for the account named by token.
// Reset tokens are stateless and stay usable until they expire.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, token string, in PasswordResetConfirmation) error {
	return internalflows.RunConfirmPasswordReset(ctx, token, in.NewPassword, in.ConfirmPassword, e.passwordResetFlowDeps())
}

func (e *Engine) passwordResetFlowDeps() internalflows.PasswordResetDeps {
	return internalflows.PasswordResetDeps{
		MinPasswordLength: e.config.Account.MinPasswordLength,
		MaxPasswordLength: e.config.Account.MaxPasswordLength,
		CreateToken: func(email string) (string, error) {
			return e.resetTokens.Create(purpose.Payload{"email": email})
		},
		DecodeToken: func(token string) (string, string, error) {
			return decodeEmailToken(e.resetTokens, token, e.config.PasswordReset.MaxAge)
		},
		Deliver: func(ctx context.Context, email, token string) error {
			msg, err := notify.PasswordResetMessage(email, e.PasswordResetLink(token))
			if err != nil {
				return err
			}
			return e.deliver(ctx, msg)
		},
		GetUserByEmail:     e.flowUserByEmail,
		HashPassword:       e.passwords.Hash,
		UpdatePasswordHash: e.updatePasswordHash,
		MetricInc:          e.metricIncInt,
		EmitAudit:          e.emitAudit,
		Warn:               e.warn,
		Metrics: internalflows.PasswordResetMetrics{
			PasswordResetRequest:        int(MetricPasswordResetRequest),
			PasswordResetConfirmSuccess: int(MetricPasswordResetConfirmSuccess),
			PasswordResetConfirmFailure: int(MetricPasswordResetConfirmFailure),
		},
		Events: internalflows.PasswordResetEvents{
			PasswordResetRequest: auditEventPasswordResetRequest,
			PasswordResetConfirm: auditEventPasswordResetConfirm,
		},
		Errors: internalflows.PasswordResetErrors{
			InvalidRequest:   ErrInvalidRequest,
			InvalidToken:     ErrInvalidToken,
			PasswordMismatch: ErrPasswordMismatch,
			PasswordPolicy:   ErrPasswordPolicy,
			UserNotFound:     ErrUserNotFound,
			Internal:         ErrInternal,
		},
	}
}
