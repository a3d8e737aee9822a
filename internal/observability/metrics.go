package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_requests_total",
			Help: "Total number of requests",
		},
		[]string{"route", "code", "method"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventhub_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	DBTxDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventhub_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxLag = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventhub_outbox_lag_seconds",
			Help: "Age of the oldest unpublished outbox record",
		},
	)

	RabbitPublishRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "eventhub_rabbit_publish_retries_total",
			Help: "Total rabbit publish retries",
		},
	)

	RateLimitExceeded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "eventhub_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)

	TicketTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_ticket_transitions_total",
			Help: "Ticket status changes by target status",
		},
		[]string{"status"},
	)

	AttendeeCheckIns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "eventhub_attendee_checkins_total",
			Help: "Total attendee check-ins",
		},
	)

	NotificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_notifications_created_total",
			Help: "Notifications created by type",
		},
		[]string{"type"},
	)
)

var registerOnce sync.Once

// InitMetrics registers the collectors with the default registry. Safe to
// call more than once.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestDuration,
			DBTxDuration,
			OutboxLag,
			RabbitPublishRetries,
			RateLimitExceeded,
			TicketTransitions,
			AttendeeCheckIns,
			NotificationsCreated,
		)
	})
}
