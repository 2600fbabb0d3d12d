// Package config loads server configuration from a YAML file, layered
// with defaults and GRIDPAY_* environment overrides.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := cfg.parseFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  Duration{Duration: 15 * time.Second},
			WriteTimeout: Duration{Duration: 15 * time.Second},
			IdleTimeout:  Duration{Duration: 60 * time.Second},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Environment: "production",
		},
		Sheets: SheetsConfig{
			CredentialsFile: "credentials.json",
			Timeout:         Duration{Duration: 30 * time.Second},
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     Duration{Duration: 5 * time.Minute},
		},
		MultiversX: MultiversXConfig{
			APIURL:  "https://api.multiversx.com",
			ChainID: "1",
			Timeout: Duration{Duration: 10 * time.Second},
		},
		Payments: PaymentsConfig{
			FeeBps:        10,
			OracleTimeout: Duration{Duration: 10 * time.Second},
		},
		RateLimit: RateLimitConfig{
			ClientQuota:   100,
			ClientWindow:  Duration{Duration: 15 * time.Minute},
			GlobalEnabled: true,
			GlobalLimit:   1000,
			GlobalWindow:  Duration{Duration: 1 * time.Minute},
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:    true,
			SheetsAPI:  defaultBreakerConfig(),
			MultiversX: defaultBreakerConfig(),
		},
	}
}

func defaultBreakerConfig() BreakerServiceConfig {
	return BreakerServiceConfig{
		MaxRequests:         3,
		Interval:            Duration{Duration: 60 * time.Second},
		Timeout:             Duration{Duration: 30 * time.Second},
		ConsecutiveFailures: 5,
		FailureRatio:        0.5,
		MinRequests:         10,
	}
}

// parseFile reads and unmarshals a YAML configuration file.
func (c *Config) parseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}

// finalize applies fallback values and validates the configuration.
func (c *Config) finalize() error {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Environment == "" {
		c.Logging.Environment = "production"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.RateLimit.ClientQuota <= 0 {
		c.RateLimit.ClientQuota = 100
	}
	if c.RateLimit.ClientWindow.Duration <= 0 {
		c.RateLimit.ClientWindow = Duration{Duration: 15 * time.Minute}
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache backend redis requires redis_addr")
		}
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}

	switch c.Storage.Backend {
	case "", "memory", "postgres", "mongodb":
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}
	if c.Storage.Backend == "postgres" && c.Storage.PostgresURL == "" {
		return fmt.Errorf("storage backend postgres requires postgres_url")
	}
	if c.Storage.Backend == "mongodb" && c.Storage.MongoDBURL == "" {
		return fmt.Errorf("storage backend mongodb requires mongodb_url")
	}

	if c.Payments.FeeBps < 0 || c.Payments.FeeBps > 10000 {
		return fmt.Errorf("payments fee_bps must be between 0 and 10000, got %d", c.Payments.FeeBps)
	}
	if c.MultiversX.APIURL == "" {
		return fmt.Errorf("multiversx api_url is required")
	}

	return nil
}
