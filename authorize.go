package authcore

import (
	"context"

	"github.com/MrEthical07/authcore/permission"
	"go.uber.org/zap"
)

// RoleChecker is an allowed-role set for a protected operation.
type RoleChecker struct {
	set permission.RoleSet
}

// NewRoleChecker builds a checker allowing roles. At least one known role is
// required.
func NewRoleChecker(roles ...permission.Role) (*RoleChecker, error) {
	set, err := permission.NewRoleSet(roles...)
	if err != nil {
		return nil, err
	}
	return &RoleChecker{set: set}, nil
}

// MustRoleChecker is NewRoleChecker for package-level route tables. It panics
// on an invalid role list.
func MustRoleChecker(roles ...permission.Role) *RoleChecker {
	c, err := NewRoleChecker(roles...)
	if err != nil {
		panic(err)
	}
	return c
}

// Allows reports whether role is in the set.
func (c *RoleChecker) Allows(role permission.Role) bool {
	return c != nil && c.set.Allows(role)
}

func (c *RoleChecker) String() string {
	if c == nil {
		return "{}"
	}
	return c.set.String()
}

// Authorize re-reads the principal's account and checks its current role
// against checker. The role claim inside the token is never consulted.
func (e *Engine) Authorize(ctx context.Context, principal *Principal, checker *RoleChecker) (Identity, error) {
	if principal == nil {
		return Identity{}, ErrAccessTokenRequired
	}

	identity, err := e.identityByEmail(ctx, principal.User.Email)
	if err != nil {
		if isContextErr(err) {
			return Identity{}, err
		}
		if !isNotFound(err) {
			e.logger.Error("authorization user lookup failed",
				zap.String("user_id", principal.User.ID),
				zap.Error(err),
			)
			return Identity{}, ErrInternal
		}
		e.metricInc(MetricAuthorizationDenied)
		e.emitAudit(ctx, auditEventAuthorizationDenied, false, principal.User.ID, ErrUserNotFound, nil)
		return Identity{}, ErrUserNotFound
	}

	if !checker.Allows(identity.Role) {
		e.metricInc(MetricAuthorizationDenied)
		e.emitAudit(ctx, auditEventAuthorizationDenied, false, identity.ID, ErrInsufficientPermission, func() map[string]string {
			return map[string]string{
				"role":    string(identity.Role),
				"allowed": checker.String(),
			}
		})
		return Identity{}, ErrInsufficientPermission
	}

	return identity, nil
}
