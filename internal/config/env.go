package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over YAML configuration. All env
// vars use the GRIDPAY_ prefix for namespace isolation.
func (c *Config) applyEnvOverrides() {
	// Server config
	setIfEnv(&c.Server.Address, "GRIDPAY_SERVER_ADDRESS")
	setIfEnv(&c.Server.MetricsAPIKey, "GRIDPAY_METRICS_API_KEY")
	if v := os.Getenv("GRIDPAY_CORS_ALLOWED_ORIGINS"); v != "" {
		c.Server.CORSAllowedOrigins = splitAndTrim(v)
	}

	// Logging config
	setIfEnv(&c.Logging.Level, "GRIDPAY_LOG_LEVEL")
	setIfEnv(&c.Logging.Format, "GRIDPAY_LOG_FORMAT")
	setIfEnv(&c.Logging.Environment, "GRIDPAY_ENVIRONMENT")

	// Sheets config
	setIfEnv(&c.Sheets.CredentialsFile, "GRIDPAY_SHEETS_CREDENTIALS_FILE")
	setIfEnv(&c.Sheets.ReadRange, "GRIDPAY_SHEETS_READ_RANGE")
	setDurationIfEnv(&c.Sheets.Timeout, "GRIDPAY_SHEETS_TIMEOUT")

	// Cache config
	setIfEnv(&c.Cache.Backend, "GRIDPAY_CACHE_BACKEND")
	setDurationIfEnv(&c.Cache.TTL, "GRIDPAY_CACHE_TTL")
	setIfEnv(&c.Cache.RedisAddr, "GRIDPAY_REDIS_ADDR")
	setIfEnv(&c.Cache.RedisPassword, "GRIDPAY_REDIS_PASSWORD")
	setIntIfEnv(&c.Cache.RedisDB, "GRIDPAY_REDIS_DB")

	// MultiversX config
	setIfEnv(&c.MultiversX.APIURL, "GRIDPAY_MULTIVERSX_API_URL")
	setIfEnv(&c.MultiversX.ChainID, "GRIDPAY_MULTIVERSX_CHAIN_ID")
	setDurationIfEnv(&c.MultiversX.Timeout, "GRIDPAY_MULTIVERSX_TIMEOUT")

	// Payments config
	setInt64IfEnv(&c.Payments.FeeBps, "GRIDPAY_PAYMENTS_FEE_BPS")
	setBoolIfEnv(&c.Payments.VerifyPayer, "GRIDPAY_PAYMENTS_VERIFY_PAYER")
	setDurationIfEnv(&c.Payments.OracleTimeout, "GRIDPAY_PAYMENTS_ORACLE_TIMEOUT")

	// Rate limit config
	setIntIfEnv(&c.RateLimit.ClientQuota, "GRIDPAY_RATE_LIMIT_CLIENT_QUOTA")
	setDurationIfEnv(&c.RateLimit.ClientWindow, "GRIDPAY_RATE_LIMIT_CLIENT_WINDOW")
	setBoolIfEnv(&c.RateLimit.GlobalEnabled, "GRIDPAY_RATE_LIMIT_GLOBAL_ENABLED")
	setIntIfEnv(&c.RateLimit.GlobalLimit, "GRIDPAY_RATE_LIMIT_GLOBAL_LIMIT")
	setDurationIfEnv(&c.RateLimit.GlobalWindow, "GRIDPAY_RATE_LIMIT_GLOBAL_WINDOW")

	// Storage config
	setIfEnv(&c.Storage.Backend, "GRIDPAY_STORAGE_BACKEND")
	setIfEnv(&c.Storage.PostgresURL, "GRIDPAY_POSTGRES_URL")
	setIfEnv(&c.Storage.MongoDBURL, "GRIDPAY_MONGODB_URL")
	setIfEnv(&c.Storage.MongoDBDatabase, "GRIDPAY_MONGODB_DATABASE")

	// Circuit breaker config
	setBoolIfEnv(&c.CircuitBreaker.Enabled, "GRIDPAY_CIRCUIT_BREAKER_ENABLED")
}

// setIfEnv sets a string pointer to the environment variable value if it exists.
func setIfEnv(target *string, key string) {
	if val := os.Getenv(key); val != "" {
		*target = val
	}
}

// setBoolIfEnv sets a boolean pointer from an environment variable.
// Accepts "1", "true", "TRUE", "True" as true values.
func setBoolIfEnv(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v == "1" || strings.EqualFold(v, "true")
	}
}

// setIntIfEnv sets an int pointer from an environment variable.
func setIntIfEnv(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

// setInt64IfEnv sets an int64 pointer from an environment variable.
func setInt64IfEnv(target *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*target = n
		}
	}
}

// setDurationIfEnv sets a Duration pointer from an environment variable.
// Uses time.ParseDuration to parse values like "5m", "120s", "1h30m".
func setDurationIfEnv(target *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			*target = Duration{Duration: dur}
		}
	}
}

// splitAndTrim splits a comma separated list, dropping empty entries.
func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
