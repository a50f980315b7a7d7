package delivery

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(
	r chi.Router,
	hTranscribe *TranscribeHandler,
	hHealth *HealthHandler,
	hRequests *RequestsHandler,
	wsHandler http.HandlerFunc,
) {
	r.Get("/health", hHealth.Health)
	r.Get("/metrics", hHealth.Metrics)

	r.Post("/transcribe", hTranscribe.Transcribe)

	// журнал есть только при DATABASE_URL
	if hRequests != nil {
		r.Get("/api/requests", hRequests.Recent)
	}

	if wsHandler != nil {
		r.Get("/ws", wsHandler)
	}
}
