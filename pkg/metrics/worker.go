package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics records metadata for background workers such as the outbox
// publisher.
type WorkerMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewWorkerMetrics registers the worker metrics on the provided registerer.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	if reg == nil {
		return &WorkerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worker_batch_duration_seconds",
		Help:    "Duration of worker batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"worker"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_success",
		Help: "Successful worker batch executions.",
	}, []string{"worker"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_failure",
		Help: "Failed worker batch executions.",
	}, []string{"worker"})
	reg.MustRegister(duration, success, failure)
	return &WorkerMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named worker.
func (m *WorkerMetrics) ObserveDuration(worker string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(worker)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named worker.
func (m *WorkerMetrics) IncSuccess(worker string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(worker)).Inc()
}

// IncFailure increments the failure counter for the named worker.
func (m *WorkerMetrics) IncFailure(worker string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(worker)).Inc()
}

func normalizeLabel(worker string) string {
	if worker == "" {
		return "unknown"
	}
	return worker
}
