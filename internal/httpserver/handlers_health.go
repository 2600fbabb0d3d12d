package httpserver

import (
	"net/http"
	"time"

	"github.com/GridPay/server/pkg/responders"
)

// health reports liveness and uptime.
// GET /health
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	responders.JSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(serverStartTime).String(),
		"timestamp": now.UTC(),
	})
}
