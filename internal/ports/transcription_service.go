package ports

import (
	"context"
	"time"

	"github.com/Vovarama1992/transcriber/internal/models"
)

const (
	StageStarted     = "started"
	StageResolved    = "resolved"
	StageTranscribed = "transcribed"
	StageFailed      = "failed"
)

type StageEvent struct {
	RequestID   string             `json:"requestId"`
	Stage       string             `json:"stage"`
	URL         string             `json:"url"`
	AudioSource models.AudioSource `json:"audioSource,omitempty"`
	Language    string             `json:"language,omitempty"`
	Error       string             `json:"error,omitempty"`
	At          time.Time          `json:"at"`
}

type TranscriptionService interface {
	Transcribe(ctx context.Context, req models.TranscriptionRequest) (*models.TranscriptionResult, error)
	Events() <-chan StageEvent
}
