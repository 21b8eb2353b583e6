package flows

import (
	"context"
	"errors"
)

// User is the flow-local account projection.
type User struct {
	ID           string
	Email        string
	Role         string
	Verified     bool
	PasswordHash string
}

// AuditFunc emits one audit event. userID may be empty.
type AuditFunc func(ctx context.Context, event string, success bool, userID string, err error, meta func() map[string]string)

// WarnFunc logs a best-effort failure as key/value pairs.
type WarnFunc func(msg string, keysAndValues ...any)

func noopMetric(int) {}

func noopAudit(context.Context, string, bool, string, error, func() map[string]string) {}

func noopWarn(string, ...any) {}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
