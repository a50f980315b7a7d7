package ports

import (
	"context"

	"github.com/Vovarama1992/transcriber/internal/models"
)

type DecodeOptions struct {
	Language       string // "" = auto-detect
	BeamSize       int
	VADFilter      bool
	WordTimestamps bool
}

type ModelInfo struct {
	Language            string
	LanguageProbability float64
	Duration            float64
}

// SpeechModel is loaded once per process and shared by all requests.
type SpeechModel interface {
	Transcribe(ctx context.Context, audioPath string, opts DecodeOptions) ([]models.TranscriptSegment, ModelInfo, error)
	Name() string
}
