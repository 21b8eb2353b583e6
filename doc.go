// Package authcore issues, verifies and revokes bearer tokens and enforces
// role-based access for an HTTP API.
//
// Access tokens are short lived and carry an advisory role; refresh tokens are
// long lived and can only mint new access tokens. Every verification consults
// a shared Redis blocklist, so a logout is visible to all request handlers as
// soon as [Engine.Logout] returns. Email verification and password reset use
// stateless purpose-scoped tokens from package purpose.
//
// Engines are assembled with [Builder] and are safe for concurrent use.
//
// # Architecture boundaries
//
// authcore is the public surface. Flow orchestration lives under
// internal/flows and never imports this package. Persistence is supplied by
// the caller through [UserProvider]; package userstore provides a gorm
// implementation.
//
// # Failure policy
//
// Every failure fails closed. An unreachable blocklist rejects the request
// with [ErrInternal] rather than accepting an unchecked token.
package authcore
