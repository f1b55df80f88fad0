package handler

import (
	"net/http"
)

// HealthHandler reports liveness and a little runtime state for probes.
type HealthHandler struct {
	backend string
	live    func() int64
}

// NewHealthHandler takes the configured backend name and a function
// reporting how many workers are currently admitted.
func NewHealthHandler(backend string, live func() int64) *HealthHandler {
	return &HealthHandler{
		backend: backend,
		live:    live,
	}
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status      string `json:"status"`
	Backend     string `json:"backend"`
	LiveWorkers int64  `json:"live_workers"`
}

// HandleRoot answers GET / with a fixed banner, so hitting the server in a
// browser confirms the API is up.
func (h *HealthHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Visualization API is running"})
}

// HandleHealth answers GET /healthz.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Backend:     h.backend,
		LiveWorkers: h.live(),
	})
}
