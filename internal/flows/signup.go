package flows

import (
	"context"
	"errors"
	"unicode/utf8"
)

// SignupInput is the flow-local signup request.
type SignupInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

type SignupMetrics struct {
	SignupSuccess   int
	SignupDuplicate int
}

type SignupEvents struct {
	SignupSuccess   string
	SignupDuplicate string
	SignupFailure   string
}

type SignupErrors struct {
	InvalidRequest    error
	PasswordPolicy    error
	UserAlreadyExists error
	UserNotFound      error
	Internal          error
}

// SignupDeps captures account creation dependencies.
type SignupDeps struct {
	MinPasswordLength int
	MaxPasswordLength int
	DefaultRole       string
	SendVerification  bool

	GetUserByEmail func(context.Context, string) (User, error)
	CreateUser     func(context.Context, SignupInput, string, string) (User, error)
	HashPassword   func(string) (string, error)

	// RequestVerification mails the verification link. Failures are logged
	// and never undo the signup.
	RequestVerification func(context.Context, User) error

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      WarnFunc

	Metrics SignupMetrics
	Events  SignupEvents
	Errors  SignupErrors
}

// CheckPasswordLength enforces the configured bounds in runes. max <= 0
// disables the upper bound.
func CheckPasswordLength(password string, min, max int) bool {
	n := utf8.RuneCountInString(password)
	if n < min {
		return false
	}
	return max <= 0 || n <= max
}

// RunSignup creates an unverified account with the default role.
func RunSignup(ctx context.Context, in SignupInput, deps SignupDeps) (User, error) {
	normalizeSignupDeps(&deps)

	fail := func(reason string, err error) (User, error) {
		deps.EmitAudit(ctx, deps.Events.SignupFailure, false, "", err, func() map[string]string {
			return map[string]string{
				"reason": reason,
			}
		})
		return User{}, err
	}

	if in.Email == "" || in.Username == "" {
		return fail("missing_fields", deps.Errors.InvalidRequest)
	}
	if !CheckPasswordLength(in.Password, deps.MinPasswordLength, deps.MaxPasswordLength) {
		return fail("password_policy", deps.Errors.PasswordPolicy)
	}

	duplicate := func() (User, error) {
		deps.MetricInc(deps.Metrics.SignupDuplicate)
		deps.EmitAudit(ctx, deps.Events.SignupDuplicate, false, "", deps.Errors.UserAlreadyExists, nil)
		return User{}, deps.Errors.UserAlreadyExists
	}

	_, err := deps.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return duplicate()
	case isContextErr(err):
		return User{}, err
	case !errors.Is(err, deps.Errors.UserNotFound):
		deps.Warn("signup user lookup failed", "error", err)
		return fail("user_lookup_failed", deps.Errors.Internal)
	}

	hash, err := deps.HashPassword(in.Password)
	if err != nil {
		deps.Warn("signup password hash failed", "error", err)
		return fail("hash_failed", deps.Errors.Internal)
	}

	user, err := deps.CreateUser(ctx, in, deps.DefaultRole, hash)
	if err != nil {
		if isContextErr(err) {
			return User{}, err
		}
		// Concurrent signups for one email race past the lookup above.
		if errors.Is(err, deps.Errors.UserAlreadyExists) {
			return duplicate()
		}
		deps.Warn("signup create failed", "error", err)
		return fail("create_failed", deps.Errors.Internal)
	}

	deps.MetricInc(deps.Metrics.SignupSuccess)
	deps.EmitAudit(ctx, deps.Events.SignupSuccess, true, user.ID, nil, nil)

	if deps.SendVerification && deps.RequestVerification != nil {
		if err := deps.RequestVerification(ctx, user); err != nil {
			deps.Warn("verification mail not sent", "user_id", user.ID, "error", err)
		}
	}

	return user, nil
}

func normalizeSignupDeps(deps *SignupDeps) {
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
