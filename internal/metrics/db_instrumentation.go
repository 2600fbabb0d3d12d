package metrics

import (
	"time"
)

// MeasureDBQuery wraps a database operation with timing instrumentation.
// Usage:
//
//	defer metrics.MeasureDBQuery(m, "create_intent")()
func MeasureDBQuery(m *Metrics, query string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.ObserveDBQuery(query, time.Since(start))
	}
}

// ObserveDBQuery records a database query duration.
func (m *Metrics) ObserveDBQuery(query string, duration time.Duration) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}
