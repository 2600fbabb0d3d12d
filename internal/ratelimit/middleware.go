package ratelimit

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	apperrors "github.com/GridPay/server/internal/errors"
	"github.com/GridPay/server/internal/metrics"
)

// ClientLimiter enforces the per-client fixed-window quota on every request.
// The client identifier is the wallet address when one is supplied, the
// client IP otherwise; requests with no usable identifier share the
// "unknown" bucket.
func ClientLimiter(limiter *Limiter, collector *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := extractClientID(r)

			decision := limiter.Admit(clientID)
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			collector.ObserveRateLimit("per_client")
			writeRejection(w, decision.RetryAfter)
		})
	}
}

// GlobalLimiter is a coarse request-count backstop across all clients,
// applied in front of the per-client limiter to bound total load.
func GlobalLimiter(limit int, window time.Duration, collector *metrics.Metrics) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		limit,
		window,
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			collector.ObserveRateLimit("global")
			writeRejection(w, window)
		}),
	)
}

// WalletFromRequest resolves the wallet identity a request carries: the
// X-Wallet header, then the egldAddress query parameter. Request bodies are
// never consulted, so the resolver is safe to use in middleware. The audit
// trail keys caller identity through this same resolver.
func WalletFromRequest(r *http.Request) string {
	if wallet := r.Header.Get("X-Wallet"); wallet != "" {
		return wallet
	}
	return r.URL.Query().Get("egldAddress")
}

// extractClientID resolves the rate-limit key for a request. Wallet
// addresses take priority over IPs so one caller cannot multiply their
// quota by rotating source addresses.
func extractClientID(r *http.Request) string {
	if wallet := WalletFromRequest(r); wallet != "" {
		return "wallet:" + wallet
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return ""
	}
	return "ip:" + host
}

// writeRejection writes the standard 429 response with a Retry-After hint.
func writeRejection(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}

	w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	apperrors.WriteError(w,
		apperrors.ErrCodeRateLimited,
		"Rate limit exceeded. Please try again later.",
		map[string]any{"retry_after_seconds": seconds},
	)
}
