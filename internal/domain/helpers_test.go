package domain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/transcriber/internal/domain/stations"
	"github.com/Vovarama1992/transcriber/internal/models"
	"github.com/Vovarama1992/transcriber/internal/ports"
	"go.uber.org/zap"
)

func nopLogger() *logger.ZapLogger {
	return logger.NewZapLogger(zap.NewNop().Sugar())
}

// stubStrategy writes a file into the workspace or fails.
type stubStrategy struct {
	name   string
	source models.AudioSource
	err    error
	calls  int
	gotURL string
}

func (s *stubStrategy) Run(_ context.Context, url string, dir string) (models.ResolvedAudio, error) {
	s.calls++
	s.gotURL = url
	if s.err != nil {
		return models.ResolvedAudio{}, s.err
	}
	path := filepath.Join(dir, s.name+".mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		return models.ResolvedAudio{}, err
	}
	return models.ResolvedAudio{FilePath: path, Source: s.source}, nil
}

type stubModel struct {
	segments []models.TranscriptSegment
	language string
	err      error

	// содержимое файла на момент вызова модели
	sawAudio bool
}

func (m *stubModel) Name() string { return "stub" }

func (m *stubModel) Transcribe(_ context.Context, path string, _ ports.DecodeOptions) ([]models.TranscriptSegment, ports.ModelInfo, error) {
	if _, err := os.Stat(path); err == nil {
		m.sawAudio = true
	}
	return m.segments, ports.ModelInfo{Language: m.language}, m.err
}

type memJournal struct {
	mu   sync.Mutex
	recs []models.RequestRecord
	err  error
}

func (j *memJournal) Record(_ context.Context, rec models.RequestRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.recs = append(j.recs, rec)
	return nil
}

func (j *memJournal) Recent(_ context.Context, limit int) ([]models.RequestRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if limit > len(j.recs) {
		limit = len(j.recs)
	}
	return append([]models.RequestRecord{}, j.recs[:limit]...), nil
}

func newClassifier() *stations.S1ClassifyURL {
	return stations.NewS1ClassifyURL(nil, nil, nopLogger())
}

func directOK() *stubStrategy {
	return &stubStrategy{name: "direct_audio", source: models.AudioSourceDirectURL}
}

func toolOK() *stubStrategy {
	return &stubStrategy{name: "ytdlp_audio", source: models.AudioSourceExternalTool}
}

func failing(msg string) *stubStrategy {
	return &stubStrategy{err: errors.New(msg)}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("workspace root not empty: %v", names)
	}
}
