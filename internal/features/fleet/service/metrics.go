package service

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector manages Prometheus metrics for bulk node operations
type MetricsCollector struct {
	operationCounter *prometheus.CounterVec
	nodesChanged     *prometheus.CounterVec
	nodeFailures     *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	registered       bool
	mu               sync.Mutex
}

// NewMetricsCollector creates a new metrics collector. namespace prefixes
// every metric name.
func NewMetricsCollector(namespace string) *MetricsCollector {
	return &MetricsCollector{
		operationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Count of bulk operations by operation and result",
			},
			[]string{"operation", "result"},
		),
		nodesChanged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_changed_total",
				Help:      "Count of nodes written by bulk operations",
			},
			[]string{"operation"},
		),
		nodeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_failures_total",
				Help:      "Count of nodes a bulk operation could not process",
			},
			[]string{"operation"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of bulk operations",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms to ~16s
			},
			[]string{"operation"},
		),
	}
}

// Register registers the metrics with reg. Repeated calls are no-ops.
func (m *MetricsCollector) Register(reg prometheus.Registerer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}
	for _, c := range []prometheus.Collector{m.operationCounter, m.nodesChanged, m.nodeFailures, m.duration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	m.registered = true
	return nil
}

// RecordOperation records one finished bulk operation
func (m *MetricsCollector) RecordOperation(operation string, nodes, failures int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	switch {
	case err != nil && failures > 0 && failures < nodes:
		result = "partial"
	case err != nil:
		result = "failure"
	}
	m.operationCounter.WithLabelValues(operation, result).Inc()
	m.nodesChanged.WithLabelValues(operation).Add(float64(nodes - failures))
	m.nodeFailures.WithLabelValues(operation).Add(float64(failures))
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
