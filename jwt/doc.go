// Package jwt encodes and decodes the signed bearer tokens handed to clients.
//
// A token carries a small user projection, a unique jti, an expiry and a
// refresh flag fixed at encode time. Signing is symmetric HMAC; decode checks
// the algorithm, signature, expiry, optional issuer and required claims.
package jwt
