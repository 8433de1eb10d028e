// Package metrics exposes the interpreter's Prometheus instrumentation.
// A nil *Recorder is valid and records nothing, so callers never guard.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the engine's metric vectors.
type Recorder struct {
	executions       *prometheus.CounterVec
	stateTransitions *prometheus.CounterVec
	stateDuration    *prometheus.HistogramVec
	taskRetries      prometheus.Counter
	taskHeartbeats   prometheus.Counter
}

// New builds a Recorder and registers its collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stately_executions_total",
			Help: "Executions reaching a terminal status, by status.",
		}, []string{"status"}),
		stateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stately_state_transitions_total",
			Help: "State entries, by state type.",
		}, []string{"type"}),
		stateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stately_state_duration_seconds",
			Help:    "Wall-clock time spent executing a state.",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),
		taskRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stately_task_retries_total",
			Help: "Retry attempts across all Task and Parallel states.",
		}),
		taskHeartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stately_task_heartbeats_total",
			Help: "Heartbeat signals emitted by task monitors.",
		}),
	}
	reg.MustRegister(r.executions, r.stateTransitions, r.stateDuration, r.taskRetries, r.taskHeartbeats)
	return r
}

// ExecutionEnded records a terminal execution status.
func (r *Recorder) ExecutionEnded(status string) {
	if r == nil {
		return
	}
	r.executions.WithLabelValues(status).Inc()
}

// StateEntered records entry into a state of the given type.
func (r *Recorder) StateEntered(stateType string) {
	if r == nil {
		return
	}
	r.stateTransitions.WithLabelValues(stateType).Inc()
}

// StateDuration records how long a state took to execute.
func (r *Recorder) StateDuration(stateType string, d time.Duration) {
	if r == nil {
		return
	}
	r.stateDuration.WithLabelValues(stateType).Observe(d.Seconds())
}

// TaskRetry records one retry attempt.
func (r *Recorder) TaskRetry() {
	if r == nil {
		return
	}
	r.taskRetries.Inc()
}

// TaskHeartbeat records one heartbeat signal.
func (r *Recorder) TaskHeartbeat() {
	if r == nil {
		return
	}
	r.taskHeartbeats.Inc()
}
