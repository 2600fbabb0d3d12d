package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker"
)

// ServiceType identifies external services for circuit breaker isolation.
type ServiceType string

const (
	ServiceSheetsAPI     ServiceType = "sheets_api"
	ServiceMultiversXAPI ServiceType = "multiversx_api"
)

// Manager manages circuit breakers for the external services. Each service
// has its own breaker so a Sheets outage cannot trip payment resolution and
// vice versa.
type Manager struct {
	breakers map[ServiceType]*gobreaker.CircuitBreaker
	enabled  bool
}

// Config holds circuit breaker configuration for all services.
type Config struct {
	Enabled    bool
	SheetsAPI  BreakerConfig
	MultiversX BreakerConfig
}

// BreakerConfig configures a single circuit breaker.
type BreakerConfig struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32

	// Interval is the cyclic period in closed state to clear counts.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// Trip thresholds: consecutive failures, or failure ratio over a
	// minimum request count.
	ConsecutiveFailures uint32
	FailureRatio        float64
	MinRequests         uint32
}

// DefaultBreakerConfig returns the thresholds used when config is silent.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         3,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
		FailureRatio:        0.5,
		MinRequests:         10,
	}
}

// NewManager creates a circuit breaker manager with the given configuration.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		breakers: make(map[ServiceType]*gobreaker.CircuitBreaker),
		enabled:  cfg.Enabled,
	}
	if !cfg.Enabled {
		return m
	}

	m.breakers[ServiceSheetsAPI] = gobreaker.NewCircuitBreaker(toSettings(string(ServiceSheetsAPI), cfg.SheetsAPI))
	m.breakers[ServiceMultiversXAPI] = gobreaker.NewCircuitBreaker(toSettings(string(ServiceMultiversXAPI), cfg.MultiversX))

	return m
}

// Execute wraps a call with circuit breaker protection. A nil manager, a
// disabled manager, or an unconfigured service executes the call directly.
func (m *Manager) Execute(service ServiceType, fn func() (any, error)) (any, error) {
	if m == nil || !m.enabled {
		return fn()
	}
	breaker, ok := m.breakers[service]
	if !ok {
		return fn()
	}
	return breaker.Execute(fn)
}

// State returns the current state of a service's breaker.
func (m *Manager) State(service ServiceType) string {
	if m == nil || !m.enabled {
		return "disabled"
	}
	breaker, ok := m.breakers[service]
	if !ok {
		return "not_configured"
	}
	return breaker.State().String()
}

func toSettings(name string, cfg BreakerConfig) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}
			if cfg.FailureRatio > 0 && cfg.MinRequests > 0 && counts.Requests >= cfg.MinRequests {
				failureRate := float64(counts.TotalFailures) / float64(counts.Requests)
				return failureRate >= cfg.FailureRatio
			}
			return false
		},
	}
}
