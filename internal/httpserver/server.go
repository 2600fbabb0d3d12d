// Package httpserver exposes the sheet gateway, payment, and dashboard
// operations over HTTP.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/GridPay/server/internal/audit"
	"github.com/GridPay/server/internal/config"
	"github.com/GridPay/server/internal/gateway"
	"github.com/GridPay/server/internal/ledger"
	"github.com/GridPay/server/internal/logger"
	"github.com/GridPay/server/internal/metrics"
	"github.com/GridPay/server/internal/ratelimit"
)

var serverStartTime = time.Now()

// Server wires handlers, middleware, and dependencies.
type Server struct {
	handlers
	httpServer *http.Server
}

type handlers struct {
	cfg      *config.Config
	gateway  *gateway.Service
	payments *ledger.Service
	trail    audit.Store
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// New builds the HTTP server with configured router.
func New(cfg *config.Config, gatewaySvc *gateway.Service, paymentSvc *ledger.Service, trail audit.Store, limiter *ratelimit.Limiter, metricsCollector *metrics.Metrics, appLogger zerolog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		handlers: handlers{
			cfg:      cfg,
			gateway:  gatewaySvc,
			payments: paymentSvc,
			trail:    trail,
			metrics:  metricsCollector,
			logger:   appLogger,
		},
		httpServer: &http.Server{
			Addr:         cfg.Server.Address,
			ReadTimeout:  cfg.Server.ReadTimeout.Duration,
			WriteTimeout: cfg.Server.WriteTimeout.Duration,
			IdleTimeout:  cfg.Server.IdleTimeout.Duration,
			Handler:      router,
		},
	}

	configureRouter(router, s.handlers, limiter)

	return s
}

// configureRouter attaches routes and the middleware chain to the router.
func configureRouter(router chi.Router, h handlers, limiter *ratelimit.Limiter) {
	// Security headers first so every response carries them, including
	// middleware rejections.
	router.Use(securityHeadersMiddleware)

	router.Use(logger.Middleware(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	if len(h.cfg.Server.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Options{
			AllowedOrigins:   h.cfg.Server.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}).Handler)
	}

	router.Use(requestMetricsMiddleware(h.metrics))

	// Lightweight endpoints stay outside the rate limiters so monitoring
	// cannot consume caller quota.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.Get("/health", h.health)
		r.With(metricsAuth(h.cfg.Server.MetricsAPIKey)).Handle("/metrics", promhttp.Handler())
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		if h.cfg.RateLimit.GlobalEnabled {
			r.Use(ratelimit.GlobalLimiter(h.cfg.RateLimit.GlobalLimit, h.cfg.RateLimit.GlobalWindow.Duration, h.metrics))
		}
		r.Use(ratelimit.ClientLimiter(limiter, h.metrics))

		r.Get("/api/sheets", h.getSheet)
		r.Post("/api/sheets", h.appendSheetRow)
		r.Put("/api/sheets", h.updateSheetRow)

		r.Post("/api/payments", h.createPayment)
		r.Get("/api/payments", h.getPayment)

		r.Get("/api/dashboard/stats", h.dashboardStats)
		r.Get("/api/dashboard/calls", h.dashboardCalls)
	})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
