package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the delivery pipeline
var (
	// notificationDispatchedTotal tracks total notifications dispatched per channel
	notificationDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatched_total",
			Help: "Total number of notifications dispatched",
		},
		[]string{"channel"},
	)

	// notificationSentTotal tracks final send outcomes per channel
	notificationSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_sent_total",
			Help: "Total number of notification sends by final outcome",
		},
		[]string{"channel", "status"}, // status: success|failure
	)

	// notificationDuration tracks end-to-end send duration including retries
	notificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_duration_seconds",
			Help:    "Notification send duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30}, // 100ms to 30s
		},
		[]string{"channel"},
	)

	// notificationRateLimitWaitSeconds tracks time spent waiting on channel rate limits
	notificationRateLimitWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_rate_limit_wait_seconds",
			Help:    "Time spent waiting for channel rate limits in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"channel"},
	)
)

// recordDispatch records a notification dispatch attempt.
func recordDispatch(channel string) {
	notificationDispatchedTotal.WithLabelValues(channel).Inc()
}

// recordSuccess records a successful send and its total duration.
func recordSuccess(channel string, duration time.Duration) {
	notificationSentTotal.WithLabelValues(channel, "success").Inc()
	notificationDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// recordFailure records an exhausted send and its total duration.
func recordFailure(channel string, duration time.Duration) {
	notificationSentTotal.WithLabelValues(channel, "failure").Inc()
	notificationDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// recordRateLimitWait records time a send spent blocked on a rate limiter.
func recordRateLimitWait(channel string, waitDuration time.Duration) {
	notificationRateLimitWaitSeconds.WithLabelValues(channel).Observe(waitDuration.Seconds())
}
