package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/GridPay/server/internal/audit"
	"github.com/GridPay/server/internal/cache"
	"github.com/GridPay/server/internal/circuitbreaker"
	"github.com/GridPay/server/internal/config"
	"github.com/GridPay/server/internal/dbpool"
	"github.com/GridPay/server/internal/gateway"
	"github.com/GridPay/server/internal/httpserver"
	"github.com/GridPay/server/internal/ledger"
	"github.com/GridPay/server/internal/lifecycle"
	"github.com/GridPay/server/internal/logger"
	"github.com/GridPay/server/internal/metrics"
	"github.com/GridPay/server/internal/multiversx"
	"github.com/GridPay/server/internal/ratelimit"
	"github.com/GridPay/server/internal/sheets"
)

var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("GRIDPAY_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := basicLogger()
		bootLog.Fatal().Err(err).Msg("config.load_failed")
	}

	appLogger := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Service:     "gridpay-server",
		Version:     version,
		Environment: cfg.Logging.Environment,
	})

	if err := run(cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("server.start_failed")
	}
}

func run(cfg *config.Config, appLogger zerolog.Logger) error {
	resources := lifecycle.NewManager()
	defer func() {
		if err := resources.Close(); err != nil {
			appLogger.Error().Err(err).Msg("server.cleanup_failed")
		}
	}()

	collector := metrics.New(prometheus.DefaultRegisterer)
	breakers := circuitbreaker.NewManager(breakerConfig(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cacheStore, err := newCacheStore(ctx, cfg)
	if err != nil {
		return err
	}
	resources.Register("cache-store", cacheStore)
	mediator := cache.NewMediator(cacheStore, collector)

	sheetsClient, err := sheets.NewGoogleClient(ctx, sheets.GoogleConfig{
		CredentialsPath: cfg.Sheets.CredentialsFile,
		ReadRange:       cfg.Sheets.ReadRange,
	}, breakers, collector)
	if err != nil {
		return err
	}

	ledgerStore, trail, err := newStores(cfg, resources, collector)
	if err != nil {
		return err
	}

	mxClient := multiversx.NewClient(multiversx.Config{
		APIURL:  cfg.MultiversX.APIURL,
		ChainID: cfg.MultiversX.ChainID,
		Timeout: cfg.MultiversX.Timeout.Duration,
	}, breakers, collector)

	var accounts ledger.AccountSource
	if cfg.Payments.VerifyPayer {
		accounts = mxClient
	}
	paymentSvc := ledger.NewService(ledgerStore, mxClient, accounts, ledger.Config{
		FeeBps:        cfg.Payments.FeeBps,
		OracleTimeout: cfg.Payments.OracleTimeout.Duration,
	}, collector)

	gatewaySvc := gateway.NewService(sheetsClient, mediator, trail, gateway.Config{
		CacheTTL:     cfg.Cache.TTL.Duration,
		SheetTimeout: cfg.Sheets.Timeout.Duration,
	})

	limiter := ratelimit.NewLimiter(cfg.RateLimit.ClientQuota, cfg.RateLimit.ClientWindow.Duration)
	resources.Register("rate-limiter", limiter)

	server := httpserver.New(cfg, gatewaySvc, paymentSvc, trail, limiter, collector, appLogger)

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info().
			Str("address", cfg.Server.Address).
			Str("cache_backend", cfg.Cache.Backend).
			Str("storage_backend", cfg.Storage.Backend).
			Msg("server.listening")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		appLogger.Info().Msg("server.shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			appLogger.Error().Err(err).Msg("server.shutdown_failed")
		}
	}

	return nil
}

// newCacheStore builds the configured cache backend.
func newCacheStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
	}
	return cache.NewMemoryStore(), nil
}

// newStores builds the payment ledger and the audit trail on a shared
// connection pool when PostgreSQL backs both.
func newStores(cfg *config.Config, resources *lifecycle.Manager, collector *metrics.Metrics) (ledger.Store, audit.Store, error) {
	ledgerCfg := ledger.StoreConfig{
		Backend:         cfg.Storage.Backend,
		PostgresURL:     cfg.Storage.PostgresURL,
		MongoDBURL:      cfg.Storage.MongoDBURL,
		MongoDBDatabase: cfg.Storage.MongoDBDatabase,
		TableName:       cfg.Storage.PaymentsTable,
		Metrics:         collector,
	}
	auditCfg := audit.StoreConfig{
		Backend:         cfg.Storage.Backend,
		PostgresURL:     cfg.Storage.PostgresURL,
		MongoDBURL:      cfg.Storage.MongoDBURL,
		MongoDBDatabase: cfg.Storage.MongoDBDatabase,
		TableName:       cfg.Storage.AuditTable,
		Metrics:         collector,
	}

	if cfg.Storage.Backend == "postgres" {
		pool, err := dbpool.NewSharedPool(cfg.Storage.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		resources.Register("postgres-pool", pool)

		ledgerStore, err := ledger.NewStoreWithDB(ledgerCfg, pool.DB())
		if err != nil {
			return nil, nil, err
		}
		trail, err := audit.NewStoreWithDB(auditCfg, pool.DB())
		if err != nil {
			return nil, nil, err
		}
		return ledgerStore, trail, nil
	}

	ledgerStore, err := ledger.NewStore(ledgerCfg)
	if err != nil {
		return nil, nil, err
	}
	resources.Register("ledger-store", ledgerStore)

	trail, err := audit.NewStore(auditCfg)
	if err != nil {
		return nil, nil, err
	}
	resources.Register("audit-store", trail)

	return ledgerStore, trail, nil
}

// breakerConfig maps configuration onto the circuit breaker manager.
func breakerConfig(cfg *config.Config) circuitbreaker.Config {
	return circuitbreaker.Config{
		Enabled:    cfg.CircuitBreaker.Enabled,
		SheetsAPI:  toBreaker(cfg.CircuitBreaker.SheetsAPI),
		MultiversX: toBreaker(cfg.CircuitBreaker.MultiversX),
	}
}

func toBreaker(c config.BreakerServiceConfig) circuitbreaker.BreakerConfig {
	return circuitbreaker.BreakerConfig{
		MaxRequests:         c.MaxRequests,
		Interval:            c.Interval.Duration,
		Timeout:             c.Timeout.Duration,
		ConsecutiveFailures: c.ConsecutiveFailures,
		FailureRatio:        c.FailureRatio,
		MinRequests:         c.MinRequests,
	}
}

func basicLogger() zerolog.Logger {
	return logger.New(logger.Config{Level: "info", Format: "json", Service: "gridpay-server", Version: version})
}
