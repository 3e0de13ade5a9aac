package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/zsiec/termvid/pkg/version"
)

// Response represents the health check response.
type Response struct {
	Status    Status            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	SessionID string            `json:"session_id,omitempty"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]*Check `json:"checks,omitempty"`
}

// Handler serves the health endpoints of the debug server.
type Handler struct {
	manager   *Manager
	sessionID string
	startTime time.Time
}

// NewHandler creates a health handler for one playback session.
func NewHandler(manager *Manager, sessionID string) *Handler {
	return &Handler{
		manager:   manager,
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// HandleHealth reruns every check. With ?cached=true it reports the
// latest results without running them.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	var checks map[string]*Check
	if r.URL.Query().Get("cached") == "true" {
		checks = h.manager.GetResults()
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		checks = h.manager.RunChecks(ctx)
	}
	overallStatus := h.manager.GetOverallStatus()

	response := Response{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Version:   version.GetInfo().Version,
		SessionID: h.sessionID,
		Uptime:    h.uptime(),
		Checks:    checks,
	}

	statusCode := http.StatusOK
	if overallStatus == StatusDown {
		statusCode = http.StatusServiceUnavailable
	}

	h.writeJSON(w, statusCode, response)
}

// HandleReady reports the latest overall status without running checks.
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	overallStatus := h.manager.GetOverallStatus()

	response := struct {
		Status    Status    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}{
		Status:    overallStatus,
		Timestamp: time.Now(),
	}

	statusCode := http.StatusOK
	if overallStatus == StatusDown {
		statusCode = http.StatusServiceUnavailable
	}

	h.writeJSON(w, statusCode, response)
}

// HandleLive always answers while the process runs.
func (h *Handler) HandleLive(w http.ResponseWriter, r *http.Request) {
	response := struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}{
		Status:    "alive",
		Timestamp: time.Now(),
	}

	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) uptime() string {
	return time.Since(h.startTime).Round(time.Second).String()
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.manager.logger.WithError(err).Error("Failed to encode health response")
	}
}
