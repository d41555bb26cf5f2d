package handlers

import (
	"net/http"
	"sort"

	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/jscontact"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Dialects []string          `json:"dialects"`
	Cache    bool              `json:"cache"`
	Checks   map[string]string `json:"checks,omitempty"`
}

// Health reports service health
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse "A dependency is down"
// @Router /health [get]
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Cache:  h.cache != nil,
	}
	for _, d := range jscontact.Dialects {
		resp.Dialects = append(resp.Dialects, string(d))
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	for _, name := range names {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string)
		}
		if err := h.checks[name](r.Context()); err != nil {
			h.logger.WithContext(r.Context()).Warn("Health check failed", logging.String("check", name), logging.Err(err))
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	writeJSON(w, status, resp)
}
