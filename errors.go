package authcore

import (
	"errors"
	"net/http"
)

// Error is a client-facing failure with a stable machine-readable code.
type Error struct {
	Code       string
	Message    string
	Resolution string
	Status     int
}

func (e *Error) Error() string {
	return e.Message
}

var (
	// ErrInvalidCredentials is returned when login email or password do not match.
	ErrInvalidCredentials = &Error{
		Code:    "invalid_email_or_password",
		Message: "Invalid Email Or Password",
		Status:  http.StatusBadRequest,
	}
	// ErrInvalidToken covers malformed, unsigned, tampered and expired tokens.
	ErrInvalidToken = &Error{
		Code:       "invalid_token",
		Message:    "Token is invalid Or expired",
		Resolution: "Please get new token",
		Status:     http.StatusUnauthorized,
	}
	// ErrRevokedToken is returned for a well-formed token whose jti is blocklisted.
	ErrRevokedToken = &Error{
		Code:       "token_revoked",
		Message:    "Token is invalid or has been revoked",
		Resolution: "Please get new token",
		Status:     http.StatusUnauthorized,
	}
	// ErrAccessTokenRequired is returned by access guards for missing or refresh tokens.
	ErrAccessTokenRequired = &Error{
		Code:       "access_token_required",
		Message:    "Please provide a valid access token",
		Resolution: "Please get an access token",
		Status:     http.StatusUnauthorized,
	}
	// ErrRefreshTokenRequired is returned by refresh guards for missing or access tokens.
	ErrRefreshTokenRequired = &Error{
		Code:       "refresh_token_required",
		Message:    "Please provide a valid refresh token",
		Resolution: "Please get an refresh token",
		Status:     http.StatusForbidden,
	}
	// ErrInsufficientPermission is returned when the caller's role is not allowed.
	ErrInsufficientPermission = &Error{
		Code:    "insufficient_permissions",
		Message: "You do not have enough permissions to perform this action",
		Status:  http.StatusForbidden,
	}
	// ErrUserAlreadyExists is returned by signup on an email collision.
	ErrUserAlreadyExists = &Error{
		Code:    "user_exists",
		Message: "User with email already exists",
		Status:  http.StatusForbidden,
	}
	// ErrUserNotFound is returned when a token references an unknown account.
	ErrUserNotFound = &Error{
		Code:    "user_not_found",
		Message: "User not found",
		Status:  http.StatusNotFound,
	}
	ErrPasswordMismatch = &Error{
		Code:    "passwords_do_not_match",
		Message: "Passwords do not match",
		Status:  http.StatusBadRequest,
	}
	ErrPasswordPolicy = &Error{
		Code:    "password_policy",
		Message: "Password does not meet the length requirements",
		Status:  http.StatusBadRequest,
	}
	ErrAccountUnverified = &Error{
		Code:       "account_unverified",
		Message:    "Account is not verified",
		Resolution: "Check your email for a verification link",
		Status:     http.StatusForbidden,
	}
	// ErrTooManyRequests is returned when mail requests for an email or IP
	// exceed the throttle window.
	ErrTooManyRequests = &Error{
		Code:       "too_many_requests",
		Message:    "Too many requests",
		Resolution: "Please wait before requesting another email",
		Status:     http.StatusTooManyRequests,
	}
	ErrInvalidRequest = &Error{
		Code:    "invalid_request",
		Message: "Request is missing required fields",
		Status:  http.StatusBadRequest,
	}
	// ErrInternal is the generic infrastructure failure.
	ErrInternal = &Error{
		Code:    "server_error",
		Message: "Oops! Something went wrong",
		Status:  http.StatusInternalServerError,
	}
)

// AsError maps err to a client-facing *Error. Anything outside the taxonomy is
// reported as ErrInternal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal
}
