// Package metrics defines the custom Prometheus metrics of the marketplace
// API. It is the single source of truth for metric names, labels and help
// strings.
//
// Metrics are registered with the default registry on package init via
// promauto; HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts sign-up, sign-in and callback outcomes.
// Labels:
//   - method: "signup", "signin" or "callback"
//   - result: "ok" or a short failure reason (e.g. "invalid_credentials")
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// AuthRejectionsTotal counts requests the auth middleware turned away.
// Label:
//   - reason: "missing_header", "token_expired", "token_invalid", "user_not_found", "account_inactive", "not_admin"
var AuthRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejections_total",
		Help:      "Total number of requests rejected by authentication or admin gates.",
	},
	[]string{"reason"},
)

// TokensIssuedTotal counts session tokens, by account type ("unset" when empty).
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of session tokens issued, by account type.",
	},
	[]string{"account_type"},
)

// LoginTouchesDroppedTotal counts lastLogin updates discarded by a full queue.
var LoginTouchesDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_touches_dropped_total",
		Help:      "Total number of last-login updates dropped because the dispatcher queue was full.",
	},
)

// ── Property metrics ──────────────────────────────────────────────────────────

// PropertiesCreatedTotal counts listings created.
// Label:
//   - listing_type: "sale" or "rent"
var PropertiesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "properties_created_total",
		Help:      "Total number of properties created, by listing type.",
	},
	[]string{"listing_type"},
)

// MediaUploadFailuresTotal counts submissions that failed while storing media.
var MediaUploadFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_upload_failures_total",
		Help:      "Total number of property submissions that failed during media upload.",
	},
)
