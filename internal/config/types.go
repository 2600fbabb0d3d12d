package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support string based YAML decoding.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration values expressed as Go-style strings or numbers interpreted as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		raw := strings.TrimSpace(value.Value)
		if raw == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err == nil {
			d.Duration = parsed
			return nil
		}
		secs, convErr := time.ParseDuration(fmt.Sprintf("%ss", raw))
		if convErr == nil {
			d.Duration = secs
			return nil
		}
		return fmt.Errorf("invalid duration value %q: %w", raw, err)
	default:
		return fmt.Errorf("unsupported duration node kind: %v", value.Kind)
	}
}

// MarshalYAML renders the duration as a string to keep config edits human-friendly.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds application level configuration aggregated from file and environment variables.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Logging        LoggingConfig        `yaml:"logging"`
	Sheets         SheetsConfig         `yaml:"sheets"`
	Cache          CacheConfig          `yaml:"cache"`
	MultiversX     MultiversXConfig     `yaml:"multiversx"`
	Payments       PaymentsConfig       `yaml:"payments"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	Storage        StorageConfig        `yaml:"storage"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address            string   `yaml:"address"`
	ReadTimeout        Duration `yaml:"read_timeout"`
	WriteTimeout       Duration `yaml:"write_timeout"`
	IdleTimeout        Duration `yaml:"idle_timeout"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	MetricsAPIKey      string   `yaml:"metrics_api_key"` // Optional API key to protect /metrics (leave empty to disable protection)
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`  // debug, info, warn, error
	Format      string `yaml:"format"` // json, console
	Environment string `yaml:"environment"`
}

// SheetsConfig holds Google Sheets API settings.
type SheetsConfig struct {
	CredentialsFile string   `yaml:"credentials_file"`
	ReadRange       string   `yaml:"read_range"`
	Timeout         Duration `yaml:"timeout"`
}

// CacheConfig holds sheet cache settings.
type CacheConfig struct {
	Backend       string   `yaml:"backend"` // memory | redis
	TTL           Duration `yaml:"ttl"`
	RedisAddr     string   `yaml:"redis_addr"`
	RedisPassword string   `yaml:"redis_password"`
	RedisDB       int      `yaml:"redis_db"`
}

// MultiversXConfig holds MultiversX network API settings.
type MultiversXConfig struct {
	APIURL  string   `yaml:"api_url"`
	ChainID string   `yaml:"chain_id"`
	Timeout Duration `yaml:"timeout"`
}

// PaymentsConfig holds payment service settings.
type PaymentsConfig struct {
	// FeeBps is the transaction fee in basis points (10 = 0.1%).
	FeeBps int64 `yaml:"fee_bps"`

	// VerifyPayer checks the payer account exists on chain before
	// creating an intent.
	VerifyPayer bool `yaml:"verify_payer"`

	OracleTimeout Duration `yaml:"oracle_timeout"`
}

// RateLimitConfig holds admission control configuration. The per-client
// limiter counts all API calls per wallet within a fixed window; the
// global limiter is a coarse per-IP backstop in front of it.
type RateLimitConfig struct {
	ClientQuota  int      `yaml:"client_quota"`
	ClientWindow Duration `yaml:"client_window"`

	GlobalEnabled bool     `yaml:"global_enabled"`
	GlobalLimit   int      `yaml:"global_limit"`
	GlobalWindow  Duration `yaml:"global_window"`
}

// StorageConfig holds persistence configuration shared by the payment
// ledger and the audit trail.
type StorageConfig struct {
	Backend         string `yaml:"backend"` // memory | postgres | mongodb
	PostgresURL     string `yaml:"postgres_url"`
	MongoDBURL      string `yaml:"mongodb_url"`
	MongoDBDatabase string `yaml:"mongodb_database"`
	PaymentsTable   string `yaml:"payments_table"`
	AuditTable      string `yaml:"audit_table"`
}

// CircuitBreakerConfig holds circuit breaker settings per external service.
type CircuitBreakerConfig struct {
	Enabled    bool                 `yaml:"enabled"`
	SheetsAPI  BreakerServiceConfig `yaml:"sheets_api"`
	MultiversX BreakerServiceConfig `yaml:"multiversx_api"`
}

// BreakerServiceConfig holds thresholds for a single circuit breaker.
type BreakerServiceConfig struct {
	MaxRequests         uint32   `yaml:"max_requests"`
	Interval            Duration `yaml:"interval"`
	Timeout             Duration `yaml:"timeout"`
	ConsecutiveFailures uint32   `yaml:"consecutive_failures"`
	FailureRatio        float64  `yaml:"failure_ratio"`
	MinRequests         uint32   `yaml:"min_requests"`
}
