package stations

import (
	"context"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/transcriber/internal/models"
	"github.com/Vovarama1992/transcriber/internal/ports"
)

const beamSize = 5

type S4AudioToText struct {
	model ports.SpeechModel
	log   *logger.ZapLogger
}

func NewS4AudioToText(model ports.SpeechModel, log *logger.ZapLogger) *S4AudioToText {
	return &S4AudioToText{model: model, log: log}
}

// Run decodes the whole file in one call and collects every segment.
func (s *S4AudioToText) Run(
	ctx context.Context,
	audio models.ResolvedAudio,
	language string,
) (*models.TranscriptionResult, error) {
	start := time.Now()
	lang := language
	if lang == "" {
		lang = "auto"
	}
	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[S4][START]",
		Fields:  map[string]any{"source": string(audio.Source), "language": lang, "model": s.model.Name()},
	})

	segments, info, err := s.model.Transcribe(ctx, audio.FilePath, ports.DecodeOptions{
		Language:       language,
		BeamSize:       beamSize,
		VADFilter:      true,
		WordTimestamps: false,
	})
	if err != nil {
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "[S4][ERR]",
			Error:   err,
		})
		return nil, err
	}

	if segments == nil {
		segments = []models.TranscriptSegment{}
	}

	// язык модели отдаём как есть, даже если он не совпал с подсказкой
	res := &models.TranscriptionResult{
		Text:        JoinSegments(segments),
		Language:    info.Language,
		AudioSource: audio.Source,
		Segments:    segments,
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[S4][OK]",
		Fields: map[string]any{
			"segments": len(segments),
			"language": info.Language,
			"dur":      time.Since(start).String(),
		},
	})

	return res, nil
}

// JoinSegments joins segment texts with single spaces and trims the result.
func JoinSegments(segments []models.TranscriptSegment) string {
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	return strings.TrimSpace(strings.Join(texts, " "))
}
