package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"
)

const healthTimeout = 3 * time.Second

// HealthResponse reports the service and dependency status.
type HealthResponse struct {
	Status         string            `json:"status"`
	Checks         map[string]string `json:"checks,omitempty"`
	UploadSessions int               `json:"uploadSessions"`
	Feeds          int               `json:"feeds"`
}

// HealthCheck reports whether the service and its dependencies are reachable
// @Summary Health check
// @Description Returns service health including the storage and cache backends
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse "Service healthy"
// @Failure 503 {object} HealthResponse "A dependency is unreachable"
// @Router /health [get]
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "healthy"}
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := h.checks[name].Health(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "unhealthy"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}
	if h.sessions != nil {
		resp.UploadSessions = h.sessions.Len()
	}
	if h.feeds != nil {
		resp.Feeds = h.feeds.Len()
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
