// Package permission defines the enumerated roles and the allowed-role sets
// used by route-level authorization checks.
//
// Each role owns one bit of a Mask64, so membership tests are a single AND.
// The package is pure data with no I/O.
package permission
