// Package httpapi mounts the authentication endpoints on a chi router.
//
// All routes live under a base path (default /api/v1/auth) and answer with
// JSON. Guarded routes use package middleware, so token and role failures
// share the same error body as handler failures.
package httpapi
