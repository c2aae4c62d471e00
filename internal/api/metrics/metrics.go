// Package metrics defines and registers all custom Prometheus metrics for the
// admin console API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation (promauto) and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "console"

// ── Directory metrics ────────────────────────────────────────────────────────

// AccountMutationsTotal counts privileged account updates.
// Labels:
//   - op: "ban", "unban", "set_role" or "noop"
//   - result: "ok", "denied", "invalid", "not_found" or "error"
var AccountMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_mutations_total",
		Help:      "Total number of account update requests, by operation and result.",
	},
	[]string{"op", "result"},
)

// AccountListingsTotal counts directory listings.
// Label:
//   - result: "ok", "denied" or "error"
var AccountListingsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_listings_total",
		Help:      "Total number of directory listing requests, by result.",
	},
	[]string{"result"},
)

// ── Session metrics ──────────────────────────────────────────────────────────

// LoginsTotal counts sign-in attempts.
// Label:
//   - result: "ok", "invalid_credentials" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of sign-in attempts, by result.",
	},
	[]string{"result"},
)

// SessionEventsPublishedTotal counts session-change notifications handed to
// the pub/sub backend.
// Labels:
//   - kind: event kind (e.g. "signed_in", "user_updated")
//   - result: "ok" or "error"
var SessionEventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_published_total",
		Help:      "Total number of session events published, by kind and result.",
	},
	[]string{"kind", "result"},
)

// SessionEventsQueueDepth tracks pending events in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var SessionEventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_events_queue_depth",
		Help:      "Current number of session events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
