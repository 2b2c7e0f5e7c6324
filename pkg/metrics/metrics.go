package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mhc"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by rate-limit preset."},
		[]string{"preset"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by rate-limit preset."},
		[]string{"preset"},
	)
	FormSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "form_submissions_total", Help: "Form submissions by type and outcome."},
		[]string{"type", "outcome"},
	)
	NotificationsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "notifications_failed_total", Help: "Emails that could not be handed to a transport, by submission type."},
		[]string{"type"},
	)
	PushDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "push_deliveries_total", Help: "Push notification deliveries by outcome."},
		[]string{"outcome"},
	)
)

// Submission outcomes.
const (
	OutcomeStored    = "stored"
	OutcomeMalformed = "malformed"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(FormSubmissions)
	reg.MustRegister(NotificationsFailed)
	reg.MustRegister(PushDeliveries)
}
