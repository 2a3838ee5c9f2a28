package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	RemindersEnqueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminders_enqueued_total",
			Help: "Total number of reminder jobs enqueued by the scheduler",
		},
	)

	RemindersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_processed_total",
			Help: "Total number of reminder jobs processed by the worker",
		},
		[]string{"status"}, // status: sent, skipped, failed
	)

	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total number of emails handed to the mail transport",
		},
		[]string{"kind"}, // kind: reminder, verification
	)

	OutboxDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_events_dispatched_total",
			Help: "Total number of outbox events published to MQ",
		},
		[]string{"status"}, // status: sent, failed
	)
)

// RecordHTTPRequestDuration observes one request's latency.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
