package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Day outcomes recorded by the allocation engine.
const (
	OutcomeAssigned   = "assigned"
	OutcomeUnassigned = "unassigned"
)

// Metrics exposes Prometheus collectors for HTTP traffic and shift allocation.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	days            *prometheus.CounterVec
	duplicates      prometheus.Counter
	ledgerFailures  prometheus.Counter
	notifications   *prometheus.CounterVec
	runDuration     prometheus.Histogram
}

// NewMetrics registers collectors on a private registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "oncall"
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"path", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "HTTP errors by route, method and error code.",
		}, []string{"path", "method", "code"}),
		days: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "days_total",
			Help:      "Scheduled days by outcome (assigned, unassigned).",
		}, []string{"outcome"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "duplicate_skips_total",
			Help:      "Candidates skipped because the shift already existed.",
		}),
		ledgerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "ledger_failures_total",
			Help:      "Workload increments that failed after the shift was stored.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "total",
			Help:      "Notifications by channel and status (queued, sent, failed).",
		}, []string{"channel", "status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a complete allocation run.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
	m.registry.MustRegister(
		m.requests, m.requestDuration, m.errors,
		m.days, m.duplicates, m.ledgerFailures,
		m.notifications, m.runDuration,
	)
	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(path, method, code).Inc()
}

// RecordDay counts one processed date.
func (m *Metrics) RecordDay(outcome string) {
	if m == nil {
		return
	}
	m.days.WithLabelValues(outcome).Inc()
}

// RecordDuplicate counts a candidate lost to a concurrent writer.
func (m *Metrics) RecordDuplicate() {
	if m == nil {
		return
	}
	m.duplicates.Inc()
}

// RecordLedgerFailure counts a failed workload increment.
func (m *Metrics) RecordLedgerFailure() {
	if m == nil {
		return
	}
	m.ledgerFailures.Inc()
}

// RecordNotification counts a notification transition.
func (m *Metrics) RecordNotification(channel, status string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, status).Inc()
}

// ObserveRun records the duration of an allocation run.
func (m *Metrics) ObserveRun(duration time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(duration.Seconds())
}
