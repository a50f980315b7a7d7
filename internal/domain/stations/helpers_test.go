package stations

import (
	"context"
	"os"
	"testing"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/transcriber/internal/models"
	"github.com/Vovarama1992/transcriber/internal/ports"
	"go.uber.org/zap"
)

func nopLogger() *logger.ZapLogger {
	return logger.NewZapLogger(zap.NewNop().Sugar())
}

// fakeRunner simulates yt-dlp.
type fakeRunner struct {
	calls int
	run   func(ctx context.Context, name string, args ...string) (CommandResult, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	f.calls++
	if f.run == nil {
		return CommandResult{}, nil
	}
	return f.run(ctx, name, args...)
}

type stubModel struct {
	segments []models.TranscriptSegment
	info     ports.ModelInfo
	err      error

	gotPath string
	gotOpts ports.DecodeOptions
}

func (m *stubModel) Name() string { return "stub" }

func (m *stubModel) Transcribe(_ context.Context, path string, opts ports.DecodeOptions) ([]models.TranscriptSegment, ports.ModelInfo, error) {
	m.gotPath = path
	m.gotOpts = opts
	return m.segments, m.info, m.err
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func argValue(args []string, key string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == key {
			return args[i+1]
		}
	}
	return ""
}

func hasArg(args []string, key string) bool {
	for _, a := range args {
		if a == key {
			return true
		}
	}
	return false
}
