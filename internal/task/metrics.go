package task

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors for one Manager. A nil *Metrics is
// valid and records nothing, so managers in tests can skip instrumentation.
type Metrics struct {
	tasksSubmitted prometheus.Counter
	tasksFinished  *prometheus.CounterVec
	tasksRunning   prometheus.Gauge
	taskDuration   *prometheus.HistogramVec
}

// NewMetrics builds and registers the task collectors. When reg is nil a
// private registry is used, keeping concurrently running managers from
// colliding on registration.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		tasksSubmitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_submitted_total",
				Help:      "Total number of tasks submitted to the scheduler",
			},
		),
		tasksFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_finished_total",
				Help:      "Total number of tasks that reached a terminal state",
			},
			[]string{"status"},
		),
		tasksRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tasks_running",
				Help:      "Number of tasks currently running",
			},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "task_duration_seconds",
				Help:      "Time from submission to terminal state",
				Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(m.tasksSubmitted, m.tasksFinished, m.tasksRunning, m.taskDuration)
	return m
}

// TaskSubmitted records a submission.
func (m *Metrics) TaskSubmitted() {
	if m == nil {
		return
	}
	m.tasksSubmitted.Inc()
}

// TaskStarted records a task entering the Running state.
func (m *Metrics) TaskStarted() {
	if m == nil {
		return
	}
	m.tasksRunning.Inc()
}

// TaskFinished records a terminal state and the task's total duration.
func (m *Metrics) TaskFinished(status Status, wasRunning bool, d time.Duration) {
	if m == nil {
		return
	}
	m.tasksFinished.WithLabelValues(status.String()).Inc()
	m.taskDuration.WithLabelValues(status.String()).Observe(d.Seconds())
	if wasRunning {
		m.tasksRunning.Dec()
	}
}
