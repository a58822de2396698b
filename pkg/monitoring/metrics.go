package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Workflow metrics
	stageTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_process_transitions_total",
			Help: "Total number of test process stage transitions",
		},
		[]string{"from_stage", "to_stage", "status"},
	)

	processesCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "test_processes_created_total",
			Help: "Total number of test processes created",
		},
	)

	// Code allocation metrics
	codeAllocationAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "test_code_allocation_attempts",
			Help:    "Number of attempts needed to allocate a unique test code",
			Buckets: []float64{1, 2, 3, 5, 10},
		},
	)

	// Notification metrics
	notificationsEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_enqueued_total",
			Help: "Total number of notification jobs enqueued",
		},
		[]string{"job", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		stageTransitionsTotal,
		processesCreatedTotal,
		codeAllocationAttempts,
		notificationsEnqueuedTotal,
	)
}

// RecordTransition records a stage transition attempt
func RecordTransition(from, to string, success bool) {
	status := "success"
	if !success {
		status = "rejected"
	}
	stageTransitionsTotal.WithLabelValues(from, to, status).Inc()
}

// RecordProcessCreated records a successful process creation
func RecordProcessCreated() {
	processesCreatedTotal.Inc()
}

// RecordCodeAllocation records how many attempts a code allocation took
func RecordCodeAllocation(attempts int) {
	codeAllocationAttempts.Observe(float64(attempts))
}

// RecordNotification records a notification enqueue attempt
func RecordNotification(job string, success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	notificationsEnqueuedTotal.WithLabelValues(job, status).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
