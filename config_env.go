package authcore

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/permission"
	"github.com/caarlos0/env/v11"
)

// EnvConfig is the process configuration read from environment variables.
type EnvConfig struct {
	JWTSecret            string        `env:"JWT_SECRET,required,notEmpty,unset"`
	JWTAlgorithm         string        `env:"JWT_ALGORITHM"          envDefault:"HS256"`
	JWTAccessTTL         time.Duration `env:"JWT_ACCESS_TTL"         envDefault:"1h"`
	JWTRefreshTTL        time.Duration `env:"JWT_REFRESH_TTL"        envDefault:"48h"`
	JWTIssuer            string        `env:"JWT_ISSUER"`
	EmailSecret          string        `env:"EMAIL_SECRET,required,notEmpty,unset"`
	PasswordResetSecret  string        `env:"PASSWORD_RESET_SECRET,required,notEmpty,unset"`
	RedisURL             string        `env:"REDIS_URL"              envDefault:"redis://localhost:6379/0"`
	DBDriver             string        `env:"DB_DRIVER"              envDefault:"sqlite"`
	DatabaseURL          string        `env:"DATABASE_URL"           envDefault:"file:authcore.db"`
	Domain               string        `env:"DOMAIN"                 envDefault:"localhost:8000"`
	HTTPAddr             string        `env:"HTTP_ADDR"              envDefault:":8000"`
	LogLevel             string        `env:"LOG_LEVEL"              envDefault:"info"`
	PasswordScheme       string        `env:"PASSWORD_SCHEME"        envDefault:"argon2id"`
	RequireVerifiedLogin bool          `env:"REQUIRE_VERIFIED_LOGIN" envDefault:"false"`
	AuditEnabled         bool          `env:"AUDIT_ENABLED"          envDefault:"true"`
	MetricsEnabled       bool          `env:"METRICS_ENABLED"        envDefault:"true"`
	MailThrottleMax      int           `env:"MAIL_THROTTLE_MAX"      envDefault:"5"`
	MailThrottleWindow   time.Duration `env:"MAIL_THROTTLE_WINDOW"   envDefault:"15m"`
}

// LoadEnvConfig parses EnvConfig from the environment.
func LoadEnvConfig() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// EngineConfig overlays the environment onto [DefaultConfig].
func (c EnvConfig) EngineConfig() Config {
	cfg := defaultConfig()

	cfg.JWT.Secret = []byte(c.JWTSecret)
	cfg.JWT.Algorithm = strings.ToUpper(c.JWTAlgorithm)
	cfg.JWT.AccessTTL = c.JWTAccessTTL
	cfg.JWT.RefreshTTL = c.JWTRefreshTTL
	cfg.JWT.Issuer = c.JWTIssuer

	cfg.EmailVerification.Secret = []byte(c.EmailSecret)
	cfg.PasswordReset.Secret = []byte(c.PasswordResetSecret)

	cfg.Password.Scheme = strings.ToLower(c.PasswordScheme)
	cfg.Account.DefaultRole = permission.RoleUser
	cfg.Account.RequireVerifiedLogin = c.RequireVerifiedLogin

	cfg.Notifications.Domain = c.Domain
	cfg.MailThrottle.Enabled = c.MailThrottleMax > 0
	cfg.MailThrottle.MaxRequests = c.MailThrottleMax
	cfg.MailThrottle.Window = c.MailThrottleWindow
	cfg.Audit.Enabled = c.AuditEnabled
	cfg.Metrics.Enabled = c.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = c.MetricsEnabled

	return cfg
}
