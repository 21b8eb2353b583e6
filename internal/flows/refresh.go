package flows

import (
	"context"
	"errors"
)

type RefreshMetrics struct {
	RefreshSuccess int
	RefreshFailure int
}

type RefreshEvents struct {
	RefreshSuccess string
	RefreshFailure string
}

type RefreshErrors struct {
	UserNotFound error
	Internal     error
}

// RefreshDeps captures the dependencies of minting an access token from an
// already verified refresh token.
type RefreshDeps struct {
	GetUserByEmail func(context.Context, string) (User, error)
	IssueAccess    func(User) (string, error)

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      WarnFunc

	Metrics RefreshMetrics
	Events  RefreshEvents
	Errors  RefreshErrors
}

// RunRefresh re-reads the account named by a refresh token and issues a new
// access token carrying the current role. A deleted or recreated account
// (different id under the same email) is reported as not found.
func RunRefresh(ctx context.Context, userID, email string, deps RefreshDeps) (string, error) {
	normalizeRefreshDeps(&deps)

	fail := func(reason string, err error) (string, error) {
		deps.MetricInc(deps.Metrics.RefreshFailure)
		deps.EmitAudit(ctx, deps.Events.RefreshFailure, false, userID, err, func() map[string]string {
			return map[string]string{
				"reason": reason,
			}
		})
		return "", err
	}

	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil {
		if isContextErr(err) {
			return "", err
		}
		if errors.Is(err, deps.Errors.UserNotFound) {
			return fail("user_not_found", deps.Errors.UserNotFound)
		}
		deps.Warn("refresh user lookup failed", "user_id", userID, "error", err)
		return fail("user_lookup_failed", deps.Errors.Internal)
	}
	if user.ID != userID {
		return fail("user_mismatch", deps.Errors.UserNotFound)
	}

	access, err := deps.IssueAccess(user)
	if err != nil {
		deps.Warn("access token issue failed", "user_id", userID, "error", err)
		return fail("issue_failed", deps.Errors.Internal)
	}

	deps.MetricInc(deps.Metrics.RefreshSuccess)
	deps.EmitAudit(ctx, deps.Events.RefreshSuccess, true, userID, nil, nil)
	return access, nil
}

func normalizeRefreshDeps(deps *RefreshDeps) {
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
