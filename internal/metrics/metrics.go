package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	WebhooksReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookbridge_webhooks_received_total",
			Help: "Total number of inbound webhook requests by provider.",
		},
		[]string{"provider"},
	)

	ValidationRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookbridge_validation_rejections_total",
			Help: "Total number of rejected webhook requests by provider and reason.",
		},
		[]string{"provider", "reason"}, // e.g. bad_signature, stale_timestamp, duplicate, rate_limited, ip_blocked
	)

	EventsNormalizedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookbridge_events_normalized_total",
			Help: "Total number of canonical events produced by provider and action.",
		},
		[]string{"provider", "action"},
	)

	EventsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookbridge_events_dropped_total",
			Help: "Total number of validated events dropped during normalization.",
		},
		[]string{"provider", "reason"}, // e.g. unknown_action, no_forward_url
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookbridge_deliveries_total",
			Help: "Total number of downstream delivery attempts by status.",
		},
		[]string{"status"}, // delivered, failed
	)

	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookbridge_retries_total",
			Help: "Total number of delivery retries by reason.",
		},
		[]string{"reason"}, // e.g. http_5xx, http_429, timeout, network
	)

	DLQTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hookbridge_dlq_total",
			Help: "Total number of jobs moved to the dead-letter index.",
		},
	)

	RetryQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hookbridge_retry_queue_depth",
			Help: "Current number of jobs waiting in the retry index.",
		},
	)

	InFlightDeliveries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hookbridge_inflight_deliveries",
			Help: "Current number of outbound deliveries in flight.",
		},
	)
)

func MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(
		WebhooksReceivedTotal,
		ValidationRejectionsTotal,
		EventsNormalizedTotal,
		EventsDroppedTotal,
		DeliveriesTotal,
		RetriesTotal,
		DLQTotal,
		RetryQueueDepth,
		InFlightDeliveries,
	)
}

// RecordWebhookReceived increments the inbound request counter for a provider
func RecordWebhookReceived(provider string) {
	WebhooksReceivedTotal.WithLabelValues(provider).Inc()
}

// RecordRejection increments the validation rejection counter
func RecordRejection(provider, reason string) {
	ValidationRejectionsTotal.WithLabelValues(provider, reason).Inc()
}

// RecordNormalized increments the canonical event counter
func RecordNormalized(provider, action string) {
	EventsNormalizedTotal.WithLabelValues(provider, action).Inc()
}

// RecordDropped increments the dropped event counter
func RecordDropped(provider, reason string) {
	EventsDroppedTotal.WithLabelValues(provider, reason).Inc()
}

// RecordDelivery increments the delivery counter for a terminal attempt status
func RecordDelivery(status string) {
	DeliveriesTotal.WithLabelValues(status).Inc()
}

// RecordRetry increments the retry counter for a classified failure reason
func RecordRetry(reason string) {
	RetriesTotal.WithLabelValues(reason).Inc()
}

// RecordDLQ increments the dead-letter counter
func RecordDLQ() {
	DLQTotal.Inc()
}
