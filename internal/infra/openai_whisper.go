package infra

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/transcriber/internal/models"
	"github.com/Vovarama1992/transcriber/internal/ports"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIWhisperModel is a hosted alternative to the local worker. Beam size
// and VAD are chosen server-side, so only the language hint is forwarded.
type OpenAIWhisperModel struct {
	client *openai.Client
	model  string
}

func NewOpenAIWhisperModel(apiKey, baseURL string) (*OpenAIWhisperModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIWhisperModel{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.Whisper1,
	}, nil
}

func (m *OpenAIWhisperModel) Name() string { return "openai-" + m.model }

func (m *OpenAIWhisperModel) Transcribe(
	ctx context.Context,
	audioPath string,
	opts ports.DecodeOptions,
) ([]models.TranscriptSegment, ports.ModelInfo, error) {
	resp, err := m.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    m.model,
		FilePath: audioPath,
		Language: opts.Language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, ports.ModelInfo{}, fmt.Errorf("openai transcription: %w", err)
	}

	segments := make([]models.TranscriptSegment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, models.TranscriptSegment{
			Text:  s.Text,
			Start: s.Start,
			End:   s.End,
		})
	}

	return segments, ports.ModelInfo{
		Language: resp.Language,
		Duration: resp.Duration,
	}, nil
}
