package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

const namespace = "referral"

// Metrics holds the Prometheus collectors exported on /metrics.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	logins          *prometheus.CounterVec
	registrations   prometheus.Counter
	entries         prometheus.Counter
	commissionValue prometheus.Counter
}

// NewMetrics registers the collectors on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"route", "method"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "error responses by route and error code",
		}, []string{"route", "method", "code"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_logins_total",
			Help:      "login attempts by role and outcome",
		}, []string{"role", "outcome"}),
		registrations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "professionals_registered_total",
			Help:      "professionals registered",
		}),
		entries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commission_entries_total",
			Help:      "commission entries recorded",
		}),
		commissionValue: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commission_value_total",
			Help:      "sum of recorded commission values",
		}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordLogin counts a login attempt.
func (m *Metrics) RecordLogin(role string, ok bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.logins.WithLabelValues(role, outcome).Inc()
}

// RecordRegistration counts a successful registration.
func (m *Metrics) RecordRegistration() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

// RecordCommission counts a ledger entry and its value.
func (m *Metrics) RecordCommission(value decimal.Decimal) {
	if m == nil {
		return
	}
	m.entries.Inc()
	m.commissionValue.Add(value.InexactFloat64())
}
