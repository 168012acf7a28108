package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for task execution
var (
	// taskExecutionsTotal counts task executions by task and outcome
	taskExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_task_executions_total",
			Help: "Total number of scheduled task executions",
		},
		[]string{"task", "status"}, // status: success|failure
	)

	// taskDuration measures task execution duration
	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduler_task_duration_seconds",
			Help:    "Scheduled task execution duration in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900}, // 1s to 15m
		},
		[]string{"task"},
	)
)

func recordExecution(result Result) {
	status := "success"
	if !result.Success {
		status = "failure"
	}
	taskExecutionsTotal.WithLabelValues(result.TaskName, status).Inc()
	taskDuration.WithLabelValues(result.TaskName).Observe(result.Duration.Seconds())
}
