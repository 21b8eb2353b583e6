// Package middleware exposes net/http adapters over authcore.Engine.
//
// # Guards
//
//   - [Guard] verifies the bearer token for an intent and stores the principal.
//   - [RequireAccess] and [RequireRefresh] are Guard with a fixed intent.
//   - [RequireRole] re-reads the account and checks it against a role set.
//
// Rejections are written as JSON bodies derived from authcore.Error.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
package middleware
