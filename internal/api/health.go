package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kututorium/adminserve/internal/middleware"
)

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
}

// HealthHandler responds with a simple status check. With ?backend=1 it also
// checks that the platform backend is reachable and answers 503 when it is not.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "health"
	const method = "GET"

	status := http.StatusOK
	resp := healthResponse{Status: "ok"}
	if r.URL.Query().Get("backend") == "1" {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.Backend.Ping(ctx); err != nil {
			middleware.LoggerFromRequest(r, s.Logger).Warn("backend unreachable", zap.Error(err))
			status = http.StatusServiceUnavailable
			resp = healthResponse{Status: "degraded", Backend: "unreachable"}
		} else {
			resp.Backend = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSON(w, resp)

	s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}
