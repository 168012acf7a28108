package reminder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the batch jobs
var (
	// reminderRunsTotal counts reminder job runs by outcome
	reminderRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_job_runs_total",
			Help: "Total number of reminder job runs",
		},
		[]string{"mode"}, // mode: live|dry_run
	)

	// remindersSentTotal counts reminders sent across all runs
	remindersSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Total number of reminders sent",
		},
	)

	// remindersFailedTotal counts per-recipient reminder failures
	remindersFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminders_failed_total",
			Help: "Total number of failed reminder deliveries",
		},
	)

	// reminderRunDuration measures reminder job run duration
	reminderRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reminder_job_duration_seconds",
			Help:    "Reminder job run duration in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900}, // 1s to 15m
		},
	)

	// snoozesClearedTotal counts snoozes cleared by the expiry job
	snoozesClearedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snoozes_cleared_total",
			Help: "Total number of expired snoozes cleared",
		},
	)
)

func recordReminderRun(report *Report) {
	mode := "live"
	if report.DryRun {
		mode = "dry_run"
	}
	reminderRunsTotal.WithLabelValues(mode).Inc()
	remindersSentTotal.Add(float64(report.RemindersSent))
	remindersFailedTotal.Add(float64(report.RemindersFailed))
	reminderRunDuration.Observe(report.Duration.Seconds())
}

func recordSnoozeRun(cleared int64) {
	snoozesClearedTotal.Add(float64(cleared))
}
