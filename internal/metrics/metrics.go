package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the GridPay server.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheErrorsTotal *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHitsTotal *prometheus.CounterVec

	// Sheets upstream metrics
	SheetCallsTotal   *prometheus.CounterVec
	SheetCallDuration *prometheus.HistogramVec

	// Payment metrics
	PaymentsCreatedTotal  prometheus.Counter
	PaymentsResolvedTotal *prometheus.CounterVec
	OracleCallsTotal      *prometheus.CounterVec
	OracleCallDuration    prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridpay_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gridpay_request_duration_seconds",
				Help:    "API request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridpay_cache_hits_total",
				Help: "Read-through cache hits",
			},
			[]string{"resource"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridpay_cache_misses_total",
				Help: "Read-through cache misses",
			},
			[]string{"resource"},
		),
		CacheErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridpay_cache_errors_total",
				Help: "Cache store failures absorbed by direct fetch",
			},
			[]string{"operation"},
		),
		RateLimitHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridpay_rate_limit_hits_total",
				Help: "Requests rejected by rate limiting",
			},
			[]string{"scope"},
		),
		SheetCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridpay_sheet_calls_total",
				Help: "Calls to the Google Sheets API",
			},
			[]string{"operation", "outcome"},
		),
		SheetCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gridpay_sheet_call_duration_seconds",
				Help:    "Google Sheets API call latency",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		PaymentsCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "gridpay_payments_created_total",
				Help: "Payment intents created",
			},
		),
		PaymentsResolvedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridpay_payments_resolved_total",
				Help: "Payment intents resolved to a terminal state",
			},
			[]string{"status"},
		),
		OracleCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridpay_oracle_calls_total",
				Help: "Calls to the MultiversX status oracle",
			},
			[]string{"result"},
		),
		OracleCallDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gridpay_oracle_call_duration_seconds",
				Help:    "MultiversX API call latency",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gridpay_db_query_duration_seconds",
				Help:    "Database query latency",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"query"},
		),
	}
}

// ObserveRequest records an API request outcome.
func (m *Metrics) ObserveRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveCacheRead records a read-through result for a resource type.
func (m *Metrics) ObserveCacheRead(resource string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(resource).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(resource).Inc()
	}
}

// ObserveCacheError records an absorbed cache store failure.
func (m *Metrics) ObserveCacheError(operation string) {
	if m == nil {
		return
	}
	m.CacheErrorsTotal.WithLabelValues(operation).Inc()
}

// ObserveRateLimit records a rejected request for the given limiter scope.
func (m *Metrics) ObserveRateLimit(scope string) {
	if m == nil {
		return
	}
	m.RateLimitHitsTotal.WithLabelValues(scope).Inc()
}

// ObserveSheetCall records a Google Sheets API call.
func (m *Metrics) ObserveSheetCall(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SheetCallsTotal.WithLabelValues(operation, outcome).Inc()
	m.SheetCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObservePaymentCreated records a new payment intent.
func (m *Metrics) ObservePaymentCreated() {
	if m == nil {
		return
	}
	m.PaymentsCreatedTotal.Inc()
}

// ObservePaymentResolved records a terminal payment resolution.
func (m *Metrics) ObservePaymentResolved(status string) {
	if m == nil {
		return
	}
	m.PaymentsResolvedTotal.WithLabelValues(status).Inc()
}

// ObserveOracleCall records a status oracle query.
func (m *Metrics) ObserveOracleCall(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.OracleCallsTotal.WithLabelValues(result).Inc()
	m.OracleCallDuration.Observe(duration.Seconds())
}
