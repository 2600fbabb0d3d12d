package httpserver

import (
	"net/http"
	"strconv"
	"time"

	apierrors "github.com/GridPay/server/internal/errors"
	"github.com/GridPay/server/internal/logger"
	"github.com/GridPay/server/pkg/responders"
)

// DashboardStatsResponse aggregates the call trail for the dashboard.
type DashboardStatsResponse struct {
	TotalCalls     int64   `json:"totalCalls"`
	CachedCalls    int64   `json:"cachedCalls"`
	CallsThisMonth int64   `json:"callsThisMonth"`
	SuccessRate    float64 `json:"successRate"`
	CacheHitRate   float64 `json:"cacheHitRate"`
	MonthlyQuota   int     `json:"monthlyQuota"`
}

// dashboardStats returns aggregate call counters.
// GET /api/dashboard/stats
func (h *handlers) dashboardStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	stats, err := h.trail.Stats(r.Context(), time.Now())
	if err != nil {
		log.Error().
			Err(err).
			Msg("dashboard.stats_failed")
		apierrors.WriteSimpleError(w, apierrors.ErrCodeDatabaseError, "Could not load call statistics")
		return
	}

	responders.JSON(w, http.StatusOK, DashboardStatsResponse{
		TotalCalls:     stats.TotalCalls,
		CachedCalls:    stats.CachedCalls,
		CallsThisMonth: stats.CallsThisMonth,
		SuccessRate:    stats.SuccessRate,
		CacheHitRate:   stats.CacheHitRate,
		MonthlyQuota:   h.cfg.RateLimit.ClientQuota,
	})
}

// dashboardCalls returns recent call records, newest first.
// GET /api/dashboard/calls?limit=&offset=
func (h *handlers) dashboardCalls(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	limit := queryInt(r, "limit")
	offset := queryInt(r, "offset")

	records, err := h.trail.List(r.Context(), limit, offset)
	if err != nil {
		log.Error().
			Err(err).
			Msg("dashboard.calls_failed")
		apierrors.WriteSimpleError(w, apierrors.ErrCodeDatabaseError, "Could not load call records")
		return
	}

	responders.JSON(w, http.StatusOK, map[string]any{
		"calls":  records,
		"limit":  limit,
		"offset": offset,
	})
}

// queryInt parses an integer query parameter, treating absent or invalid
// values as zero so the store applies its own defaults.
func queryInt(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
