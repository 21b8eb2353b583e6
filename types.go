package authcore

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/permission"
)

// Identity is the account record owned by the [UserProvider]. The engine only
// ever changes Verified and PasswordHash, through [UserProvider.UpdateUser].
type Identity struct {
	ID           string
	Email        string
	Username     string
	FirstName    string
	LastName     string
	Role         permission.Role
	Verified     bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateIdentityInput is passed to [UserProvider.CreateUser] by Signup.
type CreateIdentityInput struct {
	Email        string
	Username     string
	FirstName    string
	LastName     string
	Role         permission.Role
	PasswordHash string
}

// IdentityUpdate is a partial update; nil fields are left unchanged.
type IdentityUpdate struct {
	Verified     *bool
	PasswordHash *string
}

// UserProvider is the persistence collaborator.
//
// GetUserByEmail returns [ErrUserNotFound] (possibly wrapped) when no account
// matches. CreateUser returns [ErrUserAlreadyExists] on an email collision.
// Any other error is treated as an infrastructure failure.
type UserProvider interface {
	GetUserByEmail(ctx context.Context, email string) (Identity, error)
	CreateUser(ctx context.Context, input CreateIdentityInput) (Identity, error)
	UpdateUser(ctx context.Context, id string, update IdentityUpdate) error
}

// RevocationStore is the shared blocklist consulted on every verification.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Intent selects which token kind a guard accepts.
type Intent uint8

const (
	// RequireAccess accepts access tokens only.
	RequireAccess Intent = iota
	// RequireRefresh accepts refresh tokens only.
	RequireRefresh
)

func (i Intent) String() string {
	if i == RequireRefresh {
		return "refresh"
	}
	return "access"
}

// TokenUser is the identity projection carried inside tokens. Role is
// advisory and absent from refresh tokens.
type TokenUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Principal is the result of a successful verification.
type Principal struct {
	User      TokenUser
	JTI       string
	ExpiresAt time.Time
	Kind      jwt.Kind
}

// SignupRequest carries the fields accepted by [Engine.Signup].
type SignupRequest struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         TokenUser
}

// PasswordResetConfirmation carries the new password and its confirmation.
type PasswordResetConfirmation struct {
	NewPassword     string
	ConfirmPassword string
}

func tokenUserFromIdentity(id Identity, withRole bool) TokenUser {
	u := TokenUser{ID: id.ID, Email: id.Email}
	if withRole {
		u.Role = string(id.Role)
	}
	return u
}

func (u TokenUser) jwtUser() jwt.User {
	return jwt.User{ID: u.ID, Email: u.Email, Role: u.Role}
}
