// Package metrics defines and registers all custom Prometheus metrics for the
// ticketing auth API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import via
// promauto and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ticketing"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Labels:
//   - type: "user" or "promotor"
//   - outcome: "success" or the error kind (e.g. "conflict", "validation")
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of account registrations, by account type and outcome.",
	},
	[]string{"type", "outcome"},
)

// LoginsTotal counts login attempts.
// Labels:
//   - type: "user" or "promotor"
//   - outcome: "success", "not_found", "unverified", "invalid_credentials", "throttled", ...
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by account type and outcome.",
	},
	[]string{"type", "outcome"},
)

// VerificationsTotal counts verification token redemptions.
// Label:
//   - outcome: "success" or "invalid_token"
var VerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verifications_total",
		Help:      "Total number of email verification attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// MailsSentTotal counts outbound transactional emails.
// Labels:
//   - template: the template file name (e.g. "verification.html")
//   - result: "ok" or "error"
var MailsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mails_sent_total",
		Help:      "Total number of transactional emails handed to the sender.",
	},
	[]string{"template", "result"},
)

// MailQueueDepth tracks the number of mails waiting in each dispatcher worker.
// Label:
//   - worker_id: numeric worker index
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of mails pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
