package authcore

import (
	"github.com/MrEthical07/authcore/internal/security"
)

// SecurityReport is the effective posture of an engine, including the risks
// the token model leaves open.
type SecurityReport = security.Report

// SecurityReport describes the engine's effective security settings.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return security.BuildReport(security.ReportInput{
		SigningAlgorithm: e.config.JWT.Algorithm,
		AccessTTL:        e.config.JWT.AccessTTL,
		RefreshTTL:       e.config.JWT.RefreshTTL,
		Leeway:           e.config.JWT.Leeway,
		Password: security.PasswordReport{
			Scheme:         string(e.passwords.Scheme()),
			Memory:         e.config.Password.Memory,
			Time:           e.config.Password.Time,
			Parallelism:    e.config.Password.Parallelism,
			BcryptCost:     e.config.Password.BcryptCost,
			UpgradeOnLogin: e.config.Password.UpgradeOnLogin,
		},
		EmailVerificationMaxAge: e.config.EmailVerification.MaxAge,
		PasswordResetMaxAge:     e.config.PasswordReset.MaxAge,
		RequireVerifiedLogin:    e.config.Account.RequireVerifiedLogin,
		LinkScheme:              e.config.Notifications.LinkScheme,
		AuditEnabled:            e.config.Audit.Enabled,
		NotificationsEnabled:    e.config.Notifications.Enabled,
		NotificationsDropIfFull: e.config.Notifications.DropIfFull,
		MailThrottled:           e.mailLimiter != nil,
	})
}
