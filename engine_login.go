package authcore

import (
	"context"
	"errors"
	"strings"

	internalflows "github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/jwt"
	"go.uber.org/zap"
)

// Login checks email and password and returns a fresh access/refresh pair.
// The access token carries the account role, the refresh token does not.
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	res, err := internalflows.RunLogin(ctx, normalizeEmail(email), password, e.loginFlowDeps())
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         TokenUser{ID: res.User.ID, Email: res.User.Email},
	}, nil
}

func (e *Engine) loginFlowDeps() internalflows.LoginDeps {
	return internalflows.LoginDeps{
		RequireVerified:        e.config.Account.RequireVerifiedLogin,
		PasswordUpgradeOnLogin: e.config.Password.UpgradeOnLogin,
		GetUserByEmail:         e.flowUserByEmail,
		UpdatePasswordHash:     e.updatePasswordHash,
		VerifyPassword:         e.passwords.Verify,
		PasswordNeedsUpgrade:   e.passwords.NeedsUpgrade,
		HashPassword:           e.passwords.Hash,
		IssueTokens: func(u internalflows.User) (string, string, error) {
			access, err := e.issuer.IssueAccess(TokenUser{ID: u.ID, Email: u.Email, Role: u.Role})
			if err != nil {
				return "", "", err
			}
			refresh, err := e.issuer.IssueRefresh(TokenUser{ID: u.ID, Email: u.Email}, 0)
			if err != nil {
				return "", "", err
			}
			return access, refresh, nil
		},
		MetricInc: e.metricIncInt,
		EmitAudit: e.emitAudit,
		Warn:      e.warn,
		Metrics: internalflows.LoginMetrics{
			LoginSuccess:         int(MetricLoginSuccess),
			LoginFailure:         int(MetricLoginFailure),
			PasswordHashUpgraded: int(MetricPasswordHashUpgraded),
		},
		Events: internalflows.LoginEvents{
			LoginSuccess: auditEventLoginSuccess,
			LoginFailure: auditEventLoginFailure,
		},
		Errors: internalflows.LoginErrors{
			InvalidCredentials: ErrInvalidCredentials,
			AccountUnverified:  ErrAccountUnverified,
			UserNotFound:       ErrUserNotFound,
			Internal:           ErrInternal,
		},
	}
}

// Refresh verifies a refresh token and mints a new access token for the
// account it names. The account is re-read so deleted users cannot refresh.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (string, error) {
	principal, err := e.Authenticate(ctx, refreshToken, RequireRefresh)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return "", err
	}
	return e.RefreshPrincipal(ctx, principal)
}

// RefreshPrincipal mints an access token for a principal already verified
// with RequireRefresh, e.g. by middleware.Guard.
func (e *Engine) RefreshPrincipal(ctx context.Context, principal *Principal) (string, error) {
	if principal == nil || principal.Kind != jwt.KindRefresh {
		return "", ErrRefreshTokenRequired
	}
	return internalflows.RunRefresh(ctx, principal.User.ID, principal.User.Email, e.refreshFlowDeps())
}

func (e *Engine) refreshFlowDeps() internalflows.RefreshDeps {
	return internalflows.RefreshDeps{
		GetUserByEmail: e.flowUserByEmail,
		IssueAccess: func(u internalflows.User) (string, error) {
			return e.issuer.IssueAccess(TokenUser{ID: u.ID, Email: u.Email, Role: u.Role})
		},
		MetricInc: e.metricIncInt,
		EmitAudit: e.emitAudit,
		Warn:      e.warn,
		Metrics: internalflows.RefreshMetrics{
			RefreshSuccess: int(MetricRefreshSuccess),
			RefreshFailure: int(MetricRefreshFailure),
		},
		Events: internalflows.RefreshEvents{
			RefreshSuccess: auditEventRefreshSuccess,
			RefreshFailure: auditEventRefreshFailure,
		},
		Errors: internalflows.RefreshErrors{
			UserNotFound: ErrUserNotFound,
			Internal:     ErrInternal,
		},
	}
}

// Logout verifies an access token and blocklists its jti. Refresh tokens
// issued alongside it stay valid until they expire.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	principal, err := e.Authenticate(ctx, accessToken, RequireAccess)
	if err != nil {
		return err
	}
	return e.Revoke(ctx, principal)
}

// Revoke blocklists the principal's jti until the codec stops accepting it:
// the remaining lifetime plus JWT.Leeway, capped at the access TTL plus leeway. It returns only after the store acknowledged the write, so
// any verification that starts afterwards observes it.
func (e *Engine) Revoke(ctx context.Context, principal *Principal) error {
	if principal == nil || principal.JTI == "" {
		return ErrInvalidToken
	}

	ttl, err := internalflows.RunRevoke(ctx, principal.JTI, principal.ExpiresAt, internalflows.RevokeDeps{
		Now:    e.nowTime,
		MaxTTL: e.config.JWT.AccessTTL,
		Leeway: e.config.JWT.Leeway,
		Revoke: e.revocations.Revoke,
	})
	if err != nil {
		e.metricInc(MetricRevocationStoreError)
		e.logger.Error("revocation write failed",
			zap.String("jti", principal.JTI),
			zap.Error(err),
		)
		e.emitAudit(ctx, auditEventLogout, false, principal.User.ID, ErrInternal, nil)
		return ErrInternal
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, principal.User.ID, nil, func() map[string]string {
		return map[string]string{
			"ttl": ttl.String(),
		}
	})
	return nil
}

// flowUserByEmail adapts the UserProvider for internal flows. An identity
// without an ID counts as not found.
func (e *Engine) flowUserByEmail(ctx context.Context, email string) (internalflows.User, error) {
	id, err := e.identityByEmail(ctx, email)
	if err != nil {
		return internalflows.User{}, err
	}
	return flowUser(id), nil
}

func (e *Engine) identityByEmail(ctx context.Context, email string) (Identity, error) {
	id, err := e.userProvider.GetUserByEmail(ctx, email)
	if err != nil {
		return Identity{}, err
	}
	if id.ID == "" {
		return Identity{}, ErrUserNotFound
	}
	return id, nil
}

func (e *Engine) updatePasswordHash(ctx context.Context, userID, hash string) error {
	return e.userProvider.UpdateUser(ctx, userID, IdentityUpdate{PasswordHash: &hash})
}

func flowUser(id Identity) internalflows.User {
	return internalflows.User{
		ID:           id.ID,
		Email:        id.Email,
		Role:         string(id.Role),
		Verified:     id.Verified,
		PasswordHash: id.PasswordHash,
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// isNotFound reports whether a provider error means "no such account".
func isNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
