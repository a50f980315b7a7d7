package delivery

import (
	"net/http"

	"github.com/Vovarama1992/transcriber/internal/domain"
)

type HealthHandler struct {
	model string
}

func NewHealthHandler(modelLabel string) *HealthHandler {
	return &HealthHandler{model: modelLabel}
}

// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"model":  h.model,
	})
}

// GET /metrics
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(domain.FormatMetrics()))
}
