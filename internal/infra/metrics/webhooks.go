package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookEventsTotal,
		webhookRejectedTotal,
		webhookDuration,
	)
}

var (
	// outcome: processed|idempotent|ignored|error
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Inbound provider webhook events by type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	// reason: bad_signature|malformed_body
	webhookRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_rejected_total",
			Help: "Webhook deliveries rejected before any state change.",
		},
		[]string{"reason"},
	)

	webhookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_duration_seconds",
			Help:    "Duration of webhook processing in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"outcome"},
	)
)

func IncWebhookEvent(eventType, outcome string) {
	webhookEventsTotal.WithLabelValues(norm(eventType), norm(outcome)).Inc()
}

func IncWebhookRejected(reason string) {
	webhookRejectedTotal.WithLabelValues(norm(reason)).Inc()
}

func ObserveWebhookDuration(outcome string, seconds float64) {
	webhookDuration.WithLabelValues(norm(outcome)).Observe(seconds)
}
