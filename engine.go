package authcore

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/internal/queue"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/notify"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/purpose"
	"go.uber.org/zap"
)

// Engine is the authentication core. It is safe for concurrent use once built
// and owns no per-request state besides atomic counters and the audit and
// notification buffers.
type Engine struct {
	config       Config
	logger       *zap.Logger
	userProvider UserProvider
	passwords    *password.Manager
	tokens       *jwt.Manager
	issuer       *TokenIssuer
	revocations  RevocationStore
	emailTokens  *purpose.Service
	resetTokens  *purpose.Service
	notifier     notify.Sender
	notifyQueue  *notify.Queue
	mailLimiter  *rate.Limiter
	audit        *queue.Dispatcher[AuditEvent]
	metrics      *Metrics
	now          func() time.Time
}

// Close drains the notification and audit buffers.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.notifyQueue != nil {
		e.notifyQueue.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports audit events discarded because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// NotificationsDropped reports mails discarded because the queue was full.
func (e *Engine) NotificationsDropped() uint64 {
	if e == nil || e.notifyQueue == nil {
		return 0
	}
	return e.notifyQueue.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Issuer exposes the token issuer for callers that mint tokens outside Login.
func (e *Engine) Issuer() *TokenIssuer {
	return e.issuer
}

// Passwords exposes the credential hasher, e.g. for seeding accounts.
func (e *Engine) Passwords() *password.Manager {
	return e.passwords
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// metricIncInt adapts metricInc for internal flows, which carry IDs as ints.
func (e *Engine) metricIncInt(id int) {
	e.metricInc(MetricID(id))
}

func (e *Engine) warn(msg string, keysAndValues ...any) {
	e.logger.Sugar().Warnw(msg, keysAndValues...)
}

func (e *Engine) nowTime() time.Time {
	if e.now == nil {
		return time.Now()
	}
	return e.now()
}

func (e *Engine) deliver(ctx context.Context, msg notify.Message) error {
	if e.notifier == nil {
		return nil
	}
	return e.notifier.Send(ctx, msg)
}
