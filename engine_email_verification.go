package authcore

import (
	"context"
	"errors"
	"time"

	internalflows "github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/notify"
	"github.com/MrEthical07/authcore/purpose"
)

// VerificationLink returns the absolute URL mailed to confirm token.
func (e *Engine) VerificationLink(token string) string {
	return e.link("/verify/", token)
}

// RequestEmailVerification re-sends the verification link. It succeeds for
// unknown and already verified emails without sending anything.
func (e *Engine) RequestEmailVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := e.throttleMail(ctx, MailScopeVerification, email); err != nil {
		return err
	}
	return internalflows.RunRequestEmailVerification(ctx, email, e.emailVerificationFlowDeps())
}

// VerifyEmail confirms the account named by an email verification token.
// Repeating it with the same token is harmless.
func (e *Engine) VerifyEmail(ctx context.Context, token string) (Identity, error) {
	var verified Identity
	deps := e.emailVerificationFlowDeps()
	deps.GetUserByEmail = func(ctx context.Context, email string) (internalflows.User, error) {
		id, err := e.identityByEmail(ctx, email)
		if err != nil {
			return internalflows.User{}, err
		}
		verified = id
		return flowUser(id), nil
	}

	u, err := internalflows.RunConfirmEmailVerification(ctx, token, deps)
	if err != nil {
		return Identity{}, err
	}
	verified.Verified = u.Verified
	return verified, nil
}

func (e *Engine) emailVerificationFlowDeps() internalflows.EmailVerificationDeps {
	return internalflows.EmailVerificationDeps{
		CreateToken: func(email string) (string, error) {
			return e.emailTokens.Create(purpose.Payload{"email": email})
		},
		DecodeToken: func(token string) (string, string, error) {
			return decodeEmailToken(e.emailTokens, token, e.config.EmailVerification.MaxAge)
		},
		Deliver: func(ctx context.Context, email, token string) error {
			msg, err := notify.VerificationMessage(email, e.VerificationLink(token))
			if err != nil {
				return err
			}
			return e.deliver(ctx, msg)
		},
		GetUserByEmail: e.flowUserByEmail,
		MarkVerified: func(ctx context.Context, userID string) error {
			verified := true
			return e.userProvider.UpdateUser(ctx, userID, IdentityUpdate{Verified: &verified})
		},
		MetricInc: e.metricIncInt,
		EmitAudit: e.emitAudit,
		Warn:      e.warn,
		Metrics: internalflows.EmailVerificationMetrics{
			EmailVerificationRequest: int(MetricEmailVerificationRequest),
			EmailVerificationSuccess: int(MetricEmailVerificationSuccess),
			EmailVerificationFailure: int(MetricEmailVerificationFailure),
		},
		Events: internalflows.EmailVerificationEvents{
			EmailVerificationRequest: auditEventEmailVerificationRequest,
			EmailVerificationConfirm: auditEventEmailVerificationConfirm,
		},
		Errors: internalflows.EmailVerificationErrors{
			InvalidRequest: ErrInvalidRequest,
			InvalidToken:   ErrInvalidToken,
			UserNotFound:   ErrUserNotFound,
			Internal:       ErrInternal,
		},
	}
}

// decodeEmailToken extracts the email bound to a purpose token. The reason is
// used only for audit metadata.
func decodeEmailToken(svc *purpose.Service, token string, maxAge time.Duration) (string, string, error) {
	payload, err := svc.Decode(token, maxAge)
	if err != nil {
		if errors.Is(err, purpose.ErrExpired) {
			return "", "expired", err
		}
		return "", "invalid", err
	}
	email := payload["email"]
	if email == "" {
		return "", "missing_email", purpose.ErrInvalid
	}
	return email, "", nil
}

func (e *Engine) link(route, token string) string {
	n := e.config.Notifications
	return n.LinkScheme + "://" + n.Domain + n.BasePath + route + token
}
