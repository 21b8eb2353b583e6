// Package userstore is a gorm-backed authcore.UserProvider.
//
// Open selects a dialector by name from a small registry. "sqlite" and
// "postgres" are registered by default; callers may Register others.
package userstore
