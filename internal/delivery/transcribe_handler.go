package delivery

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/transcriber/internal/domain"
	"github.com/Vovarama1992/transcriber/internal/models"
	"github.com/Vovarama1992/transcriber/internal/ports"
)

const maxRequestBody = 1 << 20

type TranscribeHandler struct {
	svc ports.TranscriptionService
	log *logger.ZapLogger
}

func NewTranscribeHandler(svc ports.TranscriptionService, log *logger.ZapLogger) *TranscribeHandler {
	return &TranscribeHandler{svc: svc, log: log}
}

// POST /transcribe
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		h.reject(w, "read body: "+err.Error())
		return
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		h.reject(w, "No data provided")
		return
	}

	var req *models.TranscriptionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		h.reject(w, "invalid json: "+err.Error())
		return
	}
	if req == nil {
		h.reject(w, "No data provided")
		return
	}

	res, err := h.svc.Transcribe(r.Context(), *req)
	if err != nil {
		status, msg := errorResponse(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *TranscribeHandler) reject(w http.ResponseWriter, msg string) {
	h.log.Log(logger.LogEntry{
		Level:   "warn",
		Message: "[HTTP][BAD-REQUEST]",
		Fields:  map[string]any{"reason": msg},
	})
	writeError(w, http.StatusBadRequest, msg)
}

func errorResponse(err error) (int, string) {
	var perr *domain.PipelineError
	if !errors.As(err, &perr) {
		return http.StatusInternalServerError, err.Error()
	}

	switch perr.Stage {
	case domain.StageValidate, domain.StageResolve:
		return http.StatusBadRequest, perr.Message
	default:
		return http.StatusInternalServerError, perr.Message
	}
}
