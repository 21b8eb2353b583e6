package internaldefs

import (
	"github.com/MrEthical07/authcore"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// DropDef names a backpressure counter read from a source method rather
// than from the snapshot.
type DropDef struct {
	Name string
	Help string
	Read func(Source) uint64
}

// Source is what exporters read from. *authcore.Engine satisfies it.
type Source interface {
	MetricsSnapshot() authcore.MetricsSnapshot
	AuditDropped() uint64
	NotificationsDropped() uint64
}

var CounterDefs = []CounterDef{
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Logins that issued a token pair."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Rejected logins."},
	{ID: authcore.MetricSignupSuccess, Name: "authcore_signup_success_total", Help: "Accounts created."},
	{ID: authcore.MetricSignupDuplicate, Name: "authcore_signup_duplicate_total", Help: "Signups rejected for an existing email."},
	{ID: authcore.MetricRefreshSuccess, Name: "authcore_refresh_success_total", Help: "Access tokens minted from refresh tokens."},
	{ID: authcore.MetricRefreshFailure, Name: "authcore_refresh_failure_total", Help: "Rejected refresh attempts."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Access tokens revoked by logout."},
	{ID: authcore.MetricTokenMissing, Name: "authcore_token_missing_total", Help: "Guarded requests without a bearer token."},
	{ID: authcore.MetricTokenInvalid, Name: "authcore_token_invalid_total", Help: "Tokens that failed to decode."},
	{ID: authcore.MetricTokenRevoked, Name: "authcore_token_revoked_total", Help: "Tokens rejected by the revocation blocklist."},
	{ID: authcore.MetricTokenIntentMismatch, Name: "authcore_token_intent_mismatch_total", Help: "Tokens presented to a guard expecting the other kind."},
	{ID: authcore.MetricAuthorizationDenied, Name: "authcore_authorization_denied_total", Help: "Role checks that failed."},
	{ID: authcore.MetricEmailVerificationRequest, Name: "authcore_email_verification_request_total", Help: "Verification mails requested."},
	{ID: authcore.MetricEmailVerificationSuccess, Name: "authcore_email_verification_success_total", Help: "Accounts verified."},
	{ID: authcore.MetricEmailVerificationFailure, Name: "authcore_email_verification_failure_total", Help: "Rejected verification links."},
	{ID: authcore.MetricPasswordResetRequest, Name: "authcore_password_reset_request_total", Help: "Password reset requests."},
	{ID: authcore.MetricPasswordResetConfirmSuccess, Name: "authcore_password_reset_confirm_success_total", Help: "Completed password resets."},
	{ID: authcore.MetricPasswordResetConfirmFailure, Name: "authcore_password_reset_confirm_failure_total", Help: "Rejected password reset confirmations."},
	{ID: authcore.MetricPasswordHashUpgraded, Name: "authcore_password_hash_upgraded_total", Help: "Password hashes rewritten on login."},
	{ID: authcore.MetricMailThrottled, Name: "authcore_mail_throttled_total", Help: "Mail requests refused by the throttle."},
	{ID: authcore.MetricRevocationStoreError, Name: "authcore_revocation_store_error_total", Help: "Blocklist failures; each one rejected the request."},
}

var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricVerifyLatency, Name: "authcore_verify_latency_seconds", Help: "Token verification latency."},
}

var DropDefs = []DropDef{
	{
		Name: "authcore_audit_dropped_total",
		Help: "Audit events dropped due to dispatcher backpressure.",
		Read: func(s Source) uint64 { return s.AuditDropped() },
	},
	{
		Name: "authcore_notifications_dropped_total",
		Help: "Notification mails dropped due to queue backpressure.",
		Read: func(s Source) uint64 { return s.NotificationsDropped() },
	},
}

// HistogramBounds are the Prometheus "le" labels, matching the engine's
// millisecond buckets.
var HistogramBounds = [8]string{"0.005", "0.01", "0.025", "0.05", "0.1", "0.25", "0.5", "+Inf"}

// HistogramBoundSuffix is the OTel instrument-name form of HistogramBounds.
var HistogramBoundSuffix = [8]string{"0_005", "0_01", "0_025", "0_05", "0_1", "0_25", "0_5", "inf"}

// CumulativeBuckets converts raw per-bucket counts into running totals.
// Missing trailing buckets count as zero.
func CumulativeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
