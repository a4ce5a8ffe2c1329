package handlers

import (
	"net/http"
	"time"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/services"
)

// HealthHandlers exposes liveness and readiness probes.
type HealthHandlers struct {
	system services.SystemService
}

func NewHealthHandlers(system services.SystemService) *HealthHandlers {
	return &HealthHandlers{system: system}
}

type healthCheckPayload struct {
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	CheckedAt string `json:"checked_at,omitempty"`
}

type healthReportPayload struct {
	Status      string                        `json:"status"`
	Checks      map[string]healthCheckPayload `json:"checks"`
	GeneratedAt string                        `json:"generated_at"`
}

// Healthz reports process liveness without touching dependencies.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz probes dependencies through the system service. Any dependency in
// an error state turns the probe into a 503.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	report, err := h.system.HealthReport(r.Context())
	if err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, healthReportPayload{
			Status:      string(domain.HealthStatusError),
			Checks:      map[string]healthCheckPayload{},
			GeneratedAt: formatTime(time.Now().UTC()),
		})
		return
	}

	payload := healthReportPayload{
		Status:      string(report.Status),
		Checks:      make(map[string]healthCheckPayload, len(report.Checks)),
		GeneratedAt: formatTime(report.GeneratedAt),
	}
	for name, check := range report.Checks {
		payload.Checks[name] = healthCheckPayload{
			Status:    string(check.Status),
			Detail:    check.Detail,
			Error:     check.Error,
			LatencyMS: check.Latency.Milliseconds(),
			CheckedAt: formatTime(check.CheckedAt),
		}
	}

	status := http.StatusOK
	if report.Status == domain.HealthStatusError {
		status = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, status, payload)
}
