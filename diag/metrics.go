package diag

import "github.com/prometheus/client_golang/prometheus"

// Metrics collects the counters and histograms the cyclic engine updates
// every cycle. It implements prometheus.Collector so an application can
// register it once with its own registry.
type Metrics struct {
	CycleDuration   prometheus.Histogram
	WkcMismatches   prometheus.Counter
	TaskTimeouts    *prometheus.CounterVec
	SlavesOnline    prometheus.Gauge
	ProcessedCycles prometheus.Counter
}

// NewMetrics builds a Metrics with the given namespace, unregistered.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall-clock duration of one process-data exchange cycle.",
			Buckets:   prometheus.ExponentialBuckets(50e-6, 2, 12),
		}),
		WkcMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wkc_mismatches_total",
			Help:      "Process-data cycles whose observed working counter did not match the expected value.",
		}),
		TaskTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_timeouts_total",
			Help:      "Task completions that ended in a deadline timeout, labeled by task kind.",
		}, []string{"task"}),
		SlavesOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "slaves_online",
			Help:      "Number of slaves discovered by the last network initialization.",
		}),
		ProcessedCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Process-data exchange cycles completed since start.",
		}),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.CycleDuration.Describe(ch)
	m.WkcMismatches.Describe(ch)
	m.TaskTimeouts.Describe(ch)
	m.SlavesOnline.Describe(ch)
	m.ProcessedCycles.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.CycleDuration.Collect(ch)
	m.WkcMismatches.Collect(ch)
	m.TaskTimeouts.Collect(ch)
	m.SlavesOnline.Collect(ch)
	m.ProcessedCycles.Collect(ch)
}

// ObserveCycle records the outcome of one ProcessOneCycle call.
func (m *Metrics) ObserveCycle(durationSeconds float64, wkcMismatch bool) {
	m.CycleDuration.Observe(durationSeconds)
	m.ProcessedCycles.Inc()
	if wkcMismatch {
		m.WkcMismatches.Inc()
	}
}

// ObserveTaskTimeout increments the timeout counter for the named task kind.
func (m *Metrics) ObserveTaskTimeout(taskKind string) {
	m.TaskTimeouts.WithLabelValues(taskKind).Inc()
}
