package authcore

import (
	"context"

	internalflows "github.com/MrEthical07/authcore/internal/flows"
)

// Signup creates an unverified account with the default role and mails a
// verification link. A mail that cannot be queued does not undo the signup.
func (e *Engine) Signup(ctx context.Context, req SignupRequest) (Identity, error) {
	var created Identity

	deps := internalflows.SignupDeps{
		MinPasswordLength: e.config.Account.MinPasswordLength,
		MaxPasswordLength: e.config.Account.MaxPasswordLength,
		DefaultRole:       string(e.config.Account.DefaultRole),
		SendVerification:  e.notifier != nil,
		GetUserByEmail:    e.flowUserByEmail,
		CreateUser: func(ctx context.Context, in internalflows.SignupInput, role, hash string) (internalflows.User, error) {
			id, err := e.userProvider.CreateUser(ctx, CreateIdentityInput{
				Email:        in.Email,
				Username:     in.Username,
				FirstName:    in.FirstName,
				LastName:     in.LastName,
				Role:         e.config.Account.DefaultRole,
				PasswordHash: hash,
			})
			if err != nil {
				return internalflows.User{}, err
			}
			created = id
			return flowUser(id), nil
		},
		HashPassword: e.passwords.Hash,
		RequestVerification: func(ctx context.Context, u internalflows.User) error {
			return internalflows.SendEmailVerification(ctx, u, e.emailVerificationFlowDeps())
		},
		MetricInc: e.metricIncInt,
		EmitAudit: e.emitAudit,
		Warn:      e.warn,
		Metrics: internalflows.SignupMetrics{
			SignupSuccess:   int(MetricSignupSuccess),
			SignupDuplicate: int(MetricSignupDuplicate),
		},
		Events: internalflows.SignupEvents{
			SignupSuccess:   auditEventSignupSuccess,
			SignupDuplicate: auditEventSignupDuplicate,
			SignupFailure:   auditEventSignupFailure,
		},
		Errors: internalflows.SignupErrors{
			InvalidRequest:    ErrInvalidRequest,
			PasswordPolicy:    ErrPasswordPolicy,
			UserAlreadyExists: ErrUserAlreadyExists,
			UserNotFound:      ErrUserNotFound,
			Internal:          ErrInternal,
		},
	}

	_, err := internalflows.RunSignup(ctx, internalflows.SignupInput{
		Email:     normalizeEmail(req.Email),
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	}, deps)
	if err != nil {
		return Identity{}, err
	}
	return created, nil
}
