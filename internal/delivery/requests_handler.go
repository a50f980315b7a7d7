package delivery

import (
	"net/http"
	"strconv"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/transcriber/internal/ports"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

type RequestsHandler struct {
	journal ports.RequestJournal
	log     *logger.ZapLogger
}

func NewRequestsHandler(journal ports.RequestJournal, log *logger.ZapLogger) *RequestsHandler {
	return &RequestsHandler{journal: journal, log: log}
}

// GET /api/requests?limit=N
func (h *RequestsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxRecentLimit)
	}

	recs, err := h.journal.Recent(r.Context(), limit)
	if err != nil {
		h.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "[HTTP][JOURNAL-ERR]",
			Error:   err,
		})
		writeError(w, http.StatusInternalServerError, "failed get requests: "+err.Error())
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "requests fetched",
		Fields:  map[string]any{"count": len(recs), "limit": limit},
	})

	writeJSON(w, http.StatusOK, map[string]any{"requests": recs})
}
