package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/MrEthical07/authcore"
)

type identityContextKey struct{}

// IdentityFromContext returns the account loaded by RequireRole.
func IdentityFromContext(ctx context.Context) (authcore.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(authcore.Identity)
	return id, ok
}

// Guard verifies the Authorization bearer token for intent. On success the
// principal is available through authcore.PrincipalFromContext.
func Guard(engine *authcore.Engine, intent authcore.Intent) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, authcore.ErrInternal)
				return
			}

			ctx := authcore.WithClientIP(r.Context(), clientIP(r))

			// A missing or malformed header is verified as an empty token so
			// the engine reports the intent-specific error.
			token, _ := BearerToken(r.Header.Get("Authorization"))

			principal, err := engine.Authenticate(ctx, token, intent)
			if err != nil {
				WriteError(w, err)
				return
			}

			ctx = authcore.WithPrincipal(ctx, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAccess guards a route with access tokens.
func RequireAccess(engine *authcore.Engine) func(http.Handler) http.Handler {
	return Guard(engine, authcore.RequireAccess)
}

// RequireRefresh guards a route with refresh tokens.
func RequireRefresh(engine *authcore.Engine) func(http.Handler) http.Handler {
	return Guard(engine, authcore.RequireRefresh)
}

// RequireRole must run after an access Guard. It loads the current account
// and rejects it unless checker allows its role.
func RequireRole(engine *authcore.Engine, checker *authcore.RoleChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := authcore.PrincipalFromContext(r.Context())
			if !ok || engine == nil {
				WriteError(w, authcore.ErrAccessTokenRequired)
				return
			}

			identity, err := engine.Authorize(r.Context(), principal, checker)
			if err != nil {
				WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func BearerToken(value string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}

	return token, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
