package security

import "time"

type PasswordReport struct {
	Scheme         string
	Memory         uint32
	Time           uint32
	Parallelism    uint8
	BcryptCost     int
	UpgradeOnLogin bool
}

type Report struct {
	SigningAlgorithm        string
	AccessTTL               time.Duration
	RefreshTTL              time.Duration
	Leeway                  time.Duration
	Password                PasswordReport
	EmailVerificationMaxAge time.Duration
	PasswordResetMaxAge     time.Duration
	RequireVerifiedLogin    bool
	RevocationFailsClosed   bool
	InsecureLinks           bool
	AuditEnabled            bool
	NotificationsDropIfFull bool
	MailThrottled           bool
	ResidualRisks           []string
}

type ReportInput struct {
	SigningAlgorithm        string
	AccessTTL               time.Duration
	RefreshTTL              time.Duration
	Leeway                  time.Duration
	Password                PasswordReport
	EmailVerificationMaxAge time.Duration
	PasswordResetMaxAge     time.Duration
	RequireVerifiedLogin    bool
	LinkScheme              string
	AuditEnabled            bool
	NotificationsEnabled    bool
	NotificationsDropIfFull bool
	MailThrottled           bool
}

// Residual risks that hold for every configuration.
const (
	RiskRefreshSurvivesLogout = "logout revokes only the access token; the paired refresh token stays valid until it expires"
	RiskResetTokenReplay      = "password reset tokens are stateless and can be replayed until their max age elapses"
	RiskStaleRoleClaim        = "the role claim in access tokens may be stale; authorization re-reads the account instead"
)

// BuildReport summarises the effective security posture and lists the known
// residual risks for it.
func BuildReport(input ReportInput) Report {
	risks := []string{
		RiskRefreshSurvivesLogout,
		RiskResetTokenReplay,
		RiskStaleRoleClaim,
	}
	if !input.RequireVerifiedLogin {
		risks = append(risks, "unverified accounts can log in")
	}
	if input.LinkScheme == "http" {
		risks = append(risks, "verification and reset links are sent over plain http")
	}
	if input.NotificationsEnabled && input.NotificationsDropIfFull {
		risks = append(risks, "verification and reset mails are dropped when the notification buffer is full")
	}
	if input.NotificationsEnabled && !input.MailThrottled {
		risks = append(risks, "verification and reset mail requests are not throttled")
	}
	if input.Password.Scheme == "bcrypt" {
		risks = append(risks, "bcrypt is used for new hashes; argon2id is preferred")
	}

	return Report{
		SigningAlgorithm:        input.SigningAlgorithm,
		AccessTTL:               input.AccessTTL,
		RefreshTTL:              input.RefreshTTL,
		Leeway:                  input.Leeway,
		Password:                input.Password,
		EmailVerificationMaxAge: input.EmailVerificationMaxAge,
		PasswordResetMaxAge:     input.PasswordResetMaxAge,
		RequireVerifiedLogin:    input.RequireVerifiedLogin,
		RevocationFailsClosed:   true,
		InsecureLinks:           input.LinkScheme == "http",
		AuditEnabled:            input.AuditEnabled,
		NotificationsDropIfFull: input.NotificationsEnabled && input.NotificationsDropIfFull,
		MailThrottled:           input.MailThrottled,
		ResidualRisks:           risks,
	}
}
