package flows

import (
	"context"
	"errors"
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         User
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess         int
	LoginFailure         int
	PasswordHashUpgraded int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess string
	LoginFailure string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	InvalidCredentials error
	AccountUnverified  error
	UserNotFound       error
	Internal           error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	RequireVerified        bool
	PasswordUpgradeOnLogin bool

	GetUserByEmail     func(context.Context, string) (User, error)
	UpdatePasswordHash func(context.Context, string, string) error

	VerifyPassword       func(string, string) bool
	PasswordNeedsUpgrade func(string) (bool, error)
	HashPassword         func(string) (string, error)

	IssueTokens func(User) (string, string, error)

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      WarnFunc

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin checks credentials and mints an access/refresh pair. Unknown
// accounts and wrong passwords are indistinguishable to the caller.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (LoginResult, error) {
	normalizeLoginDeps(&deps)

	fail := func(userID, reason string, err error) (LoginResult, error) {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, userID, err, func() map[string]string {
			return map[string]string{
				"reason": reason,
			}
		})
		return LoginResult{}, err
	}

	if email == "" || password == "" {
		return fail("", "empty_credentials", deps.Errors.InvalidCredentials)
	}

	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil {
		if isContextErr(err) {
			return LoginResult{}, err
		}
		if errors.Is(err, deps.Errors.UserNotFound) {
			return fail("", "unknown_email", deps.Errors.InvalidCredentials)
		}
		deps.Warn("login user lookup failed", "error", err)
		return fail("", "user_lookup_failed", deps.Errors.Internal)
	}

	if !deps.VerifyPassword(password, user.PasswordHash) {
		return fail(user.ID, "password_mismatch", deps.Errors.InvalidCredentials)
	}
	if deps.RequireVerified && !user.Verified {
		return fail(user.ID, "unverified", deps.Errors.AccountUnverified)
	}

	if deps.PasswordUpgradeOnLogin {
		upgradePasswordHash(ctx, &user, password, deps)
	}

	access, refresh, err := deps.IssueTokens(user)
	if err != nil {
		deps.Warn("token issue failed", "user_id", user.ID, "error", err)
		return fail(user.ID, "issue_failed", deps.Errors.Internal)
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, user.ID, nil, nil)

	return LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	}, nil
}

// upgradePasswordHash is best-effort: a failed rewrite never fails the login.
func upgradePasswordHash(ctx context.Context, user *User, password string, deps LoginDeps) {
	if deps.PasswordNeedsUpgrade == nil || deps.HashPassword == nil || deps.UpdatePasswordHash == nil {
		return
	}
	needs, err := deps.PasswordNeedsUpgrade(user.PasswordHash)
	if err != nil {
		deps.Warn("password upgrade check failed", "user_id", user.ID, "error", err)
		return
	}
	if !needs {
		return
	}
	newHash, err := deps.HashPassword(password)
	if err != nil {
		deps.Warn("password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	if err := deps.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
		deps.Warn("password hash update failed", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = newHash
	deps.MetricInc(deps.Metrics.PasswordHashUpgraded)
}

func normalizeLoginDeps(deps *LoginDeps) {
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
