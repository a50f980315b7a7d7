package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/transcriber/internal/domain/stations"
	"github.com/Vovarama1992/transcriber/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (*logger.ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.NewZapLogger(zap.New(core).Sugar()), logs
}

// logged reports whether any entry carries marker in its message or fields.
func logged(logs *observer.ObservedLogs, marker string) bool {
	for _, e := range logs.All() {
		if strings.Contains(e.Message, marker) {
			return true
		}
		for _, v := range e.ContextMap() {
			if strings.Contains(fmt.Sprint(v), marker) {
				return true
			}
		}
	}
	return false
}

func newObservedService(t *testing.T, direct, tool *stubStrategy, model *stubModel) (*TranscriptionService, *observer.ObservedLogs) {
	t.Helper()
	log, logs := observedLogger()
	resolver := NewSourceResolver(stations.NewS1ClassifyURL(nil, nil, log), direct, tool, log)
	s4 := stations.NewS4AudioToText(model, log)
	svc := NewTranscriptionService(resolver, s4, nil, ServiceConfig{WorkspaceRoot: t.TempDir()}, log)
	return svc, logs
}

func TestResolveFailureIsLoggedWithStageMarker(t *testing.T) {
	svc, logs := newObservedService(t, failing("http 404 Not Found"), failing("yt-dlp failed (exit 1)"), &stubModel{})

	_, err := svc.Transcribe(context.Background(), models.TranscriptionRequest{URL: "https://example.com/watch"})
	require.Error(t, err)

	assert.True(t, logged(logs, "[RESOLVE][ERR]"))
	assert.True(t, logged(logs, "[REQ][ERR]"))
	assert.False(t, logged(logs, "[TRANSCRIBE][ERR]"))
}

func TestModelFailureIsLoggedWithStageMarker(t *testing.T) {
	svc, logs := newObservedService(t, directOK(), toolOK(), &stubModel{err: errors.New("model crashed")})

	_, err := svc.Transcribe(context.Background(), models.TranscriptionRequest{URL: "https://example.com/a.mp3"})
	require.Error(t, err)

	assert.True(t, logged(logs, "[TRANSCRIBE][ERR]"))
	assert.False(t, logged(logs, "[RESOLVE][ERR]"))
}
