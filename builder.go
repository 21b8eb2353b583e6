package authcore

import (
	"errors"
	"time"

	"github.com/MrEthical07/authcore/internal/queue"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/notify"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/purpose"
	"github.com/MrEthical07/authcore/revocation"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder collects configuration and collaborators, then produces an [Engine].
// A Builder can be used for a single Build call.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	revocations  RevocationStore
	userProvider UserProvider
	auditSink    AuditSink
	notifier     notify.Sender
	logger       *zap.Logger

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis backs the revocation blocklist with client. Ignored when
// WithRevocationStore is also used.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRevocationStore replaces the Redis blocklist with a custom store.
func (b *Builder) WithRevocationStore(store RevocationStore) *Builder {
	b.revocations = store
	return b
}

func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithAuditSink sets the audit destination. Events are only emitted when
// Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithNotifier sets the mail transport. Without one, messages are written to
// the logger.
func (b *Builder) WithNotifier(sender notify.Sender) *Builder {
	b.notifier = sender
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.revocations == nil && b.redis == nil {
		return nil, errors.New("redis client or revocation store required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		config:       cloneConfig(cfg),
		logger:       logger,
		userProvider: b.userProvider,
		metrics:      NewMetrics(cfg.Metrics),
		now:          time.Now,
	}

	// -------- TOKENS --------
	jm, err := jwt.NewManager(jwt.Config{
		Secret:    cloneBytes(cfg.JWT.Secret),
		Algorithm: jwt.Algorithm(cfg.JWT.Algorithm),
		Issuer:    cfg.JWT.Issuer,
		Leeway:    cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}
	engine.tokens = jm
	engine.issuer = NewTokenIssuer(jm, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	emailTokens, err := purpose.New(cfg.EmailVerification.Secret, purpose.EmailVerification)
	if err != nil {
		return nil, err
	}
	resetTokens, err := purpose.New(cfg.PasswordReset.Secret, purpose.PasswordReset)
	if err != nil {
		return nil, err
	}
	engine.emailTokens = emailTokens
	engine.resetTokens = resetTokens

	// -------- PASSWORDS --------
	pm, err := password.New(password.Config{
		Scheme: password.Scheme(cfg.Password.Scheme),
		Argon2: password.Argon2Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		},
		BcryptCost: cfg.Password.BcryptCost,
	})
	if err != nil {
		return nil, err
	}
	engine.passwords = pm

	// -------- REVOCATION --------
	if b.revocations != nil {
		engine.revocations = b.revocations
	} else {
		engine.revocations = revocation.NewStore(b.redis, cfg.Revocation.KeyPrefix)
	}

	// -------- NOTIFICATIONS --------
	if cfg.Notifications.Enabled {
		sender := b.notifier
		if sender == nil {
			sender = notify.NewLogSender(logger)
		}
		if cfg.Notifications.Async {
			q := notify.NewQueue(notify.QueueConfig{
				BufferSize: cfg.Notifications.BufferSize,
				DropIfFull: cfg.Notifications.DropIfFull,
			}, sender, logger)
			engine.notifyQueue = q
			sender = q
		}
		engine.notifier = sender
	}

	// -------- MAIL THROTTLE --------
	if cfg.MailThrottle.Enabled && b.redis != nil {
		engine.mailLimiter = rate.New(b.redis, cfg.MailThrottle.KeyPrefix, rate.Config{
			MaxRequests: cfg.MailThrottle.MaxRequests,
			Window:      cfg.MailThrottle.Window,
			PerIP:       cfg.MailThrottle.PerIP,
		})
	}

	// -------- AUDIT --------
	if cfg.Audit.Enabled && b.auditSink != nil {
		sink := b.auditSink
		engine.audit = queue.New[AuditEvent](queue.Config{
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sink.Emit)
	}

	b.built = true

	return engine, nil
}
