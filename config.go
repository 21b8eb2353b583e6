package authcore

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/permission"
)

// Config holds every tunable of the engine. Obtain defaults from
// [DefaultConfig] and override fields before passing it to [Builder.WithConfig].
type Config struct {
	JWT               JWTConfig
	Password          PasswordConfig
	EmailVerification EmailVerificationConfig
	PasswordReset     PasswordResetConfig
	Revocation        RevocationConfig
	Account           AccountConfig
	Notifications     NotificationsConfig
	MailThrottle      MailThrottleConfig
	Audit             AuditConfig
	Metrics           MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures access and refresh tokens.
type JWTConfig struct {
	Secret     []byte
	Algorithm  string // "HS256" (default), "HS384", "HS512"
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects the hashing scheme and its cost.
type PasswordConfig struct {
	Scheme         string // "argon2id" (default) or "bcrypt"
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	BcryptCost     int
	UpgradeOnLogin bool
}

/*
====================================
PURPOSE TOKENS
====================================
*/

// EmailVerificationConfig configures account verification links.
type EmailVerificationConfig struct {
	Secret []byte
	MaxAge time.Duration
}

// PasswordResetConfig configures password reset links.
type PasswordResetConfig struct {
	Secret []byte
	MaxAge time.Duration
}

// RevocationConfig configures the Redis blocklist.
type RevocationConfig struct {
	KeyPrefix string
}

// AccountConfig configures signup and login policy.
type AccountConfig struct {
	DefaultRole          permission.Role
	RequireVerifiedLogin bool
	MinPasswordLength    int
	MaxPasswordLength    int
}

// NotificationsConfig configures outbound mail and the links it carries.
type NotificationsConfig struct {
	Enabled    bool
	Async      bool
	BufferSize int
	DropIfFull bool
	LinkScheme string
	Domain     string
	BasePath   string
}

// MailThrottleConfig limits verification and reset mail requests per email
// and, optionally, per client IP. Counters live in Redis.
type MailThrottleConfig struct {
	Enabled     bool
	MaxRequests int
	Window      time.Duration
	PerIP       bool
	KeyPrefix   string
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the defaults with empty secrets. Secrets must be set
// before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			Algorithm:  "HS256",
			AccessTTL:  time.Hour,
			RefreshTTL: 48 * time.Hour,
		},
		Password: PasswordConfig{
			Scheme:         "argon2id",
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			BcryptCost:     12,
			UpgradeOnLogin: true,
		},
		EmailVerification: EmailVerificationConfig{
			MaxAge: 30 * time.Minute,
		},
		PasswordReset: PasswordResetConfig{
			MaxAge: 15 * time.Minute,
		},
		Revocation: RevocationConfig{
			KeyPrefix: "authcore:revoked:",
		},
		Account: AccountConfig{
			DefaultRole:          permission.RoleUser,
			RequireVerifiedLogin: false,
			MinPasswordLength:    6,
			MaxPasswordLength:    128,
		},
		Notifications: NotificationsConfig{
			Enabled:    true,
			Async:      true,
			BufferSize: 256,
			DropIfFull: true,
			LinkScheme: "http",
			Domain:     "localhost:8000",
			BasePath:   "/api/v1/auth",
		},
		MailThrottle: MailThrottleConfig{
			Enabled:     true,
			MaxRequests: 5,
			Window:      15 * time.Minute,
			PerIP:       true,
			KeyPrefix:   "authcore:throttle:",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.EmailVerification.Secret = cloneBytes(cfg.EmailVerification.Secret)
	out.PasswordReset.Secret = cloneBytes(cfg.PasswordReset.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT Secret must be at least 32 bytes")
	}
	switch strings.ToUpper(c.JWT.Algorithm) {
	case "HS256", "HS384", "HS512":
	default:
		return errors.New("unsupported JWT algorithm")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Password
	switch c.Password.Scheme {
	case "argon2id":
		if c.Password.Memory < 8*1024 {
			return errors.New("Password Memory must be >= 8192 KB")
		}
		if c.Password.Time < 1 {
			return errors.New("Password Time must be >= 1")
		}
		if c.Password.Parallelism < 1 {
			return errors.New("Password Parallelism must be >= 1")
		}
		if c.Password.SaltLength < 16 {
			return errors.New("Password SaltLength must be >= 16")
		}
		if c.Password.KeyLength < 16 {
			return errors.New("Password KeyLength must be >= 16")
		}
	case "bcrypt":
		if c.Password.BcryptCost < 10 || c.Password.BcryptCost > 31 {
			return errors.New("Password BcryptCost must be between 10 and 31")
		}
	default:
		return errors.New("Password Scheme must be 'argon2id' or 'bcrypt'")
	}

	// Purpose tokens
	if len(c.EmailVerification.Secret) < 16 {
		return errors.New("EmailVerification Secret must be at least 16 bytes")
	}
	if c.EmailVerification.MaxAge <= 0 {
		return errors.New("EmailVerification MaxAge must be > 0")
	}
	if len(c.PasswordReset.Secret) < 16 {
		return errors.New("PasswordReset Secret must be at least 16 bytes")
	}
	if c.PasswordReset.MaxAge <= 0 {
		return errors.New("PasswordReset MaxAge must be > 0")
	}
	if c.PasswordReset.MaxAge > time.Hour {
		return errors.New("PasswordReset MaxAge must be <= 1h")
	}

	// Revocation
	if strings.TrimSpace(c.Revocation.KeyPrefix) == "" {
		return errors.New("Revocation KeyPrefix must not be empty")
	}

	// Account
	if !c.Account.DefaultRole.Valid() {
		return errors.New("Account DefaultRole is not a known role")
	}
	if c.Account.MinPasswordLength < 1 {
		return errors.New("Account MinPasswordLength must be >= 1")
	}
	if c.Account.MaxPasswordLength != 0 && c.Account.MaxPasswordLength < c.Account.MinPasswordLength {
		return errors.New("Account MaxPasswordLength must be >= MinPasswordLength")
	}

	// Notifications
	if c.Notifications.Enabled {
		if c.Notifications.LinkScheme != "http" && c.Notifications.LinkScheme != "https" {
			return errors.New("Notifications LinkScheme must be 'http' or 'https'")
		}
		if strings.TrimSpace(c.Notifications.Domain) == "" {
			return errors.New("Notifications Domain must not be empty")
		}
		if c.Notifications.Async && c.Notifications.BufferSize <= 0 {
			return errors.New("Notifications BufferSize must be > 0 when Async is true")
		}
	}

	// Mail throttle
	if c.MailThrottle.Enabled {
		if c.MailThrottle.MaxRequests < 1 {
			return errors.New("MailThrottle MaxRequests must be >= 1")
		}
		if c.MailThrottle.Window <= 0 {
			return errors.New("MailThrottle Window must be > 0")
		}
		if strings.TrimSpace(c.MailThrottle.KeyPrefix) == "" {
			return errors.New("MailThrottle KeyPrefix must not be empty")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}
