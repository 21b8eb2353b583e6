// Package security builds the engine's security posture report from its
// effective configuration.
package security
