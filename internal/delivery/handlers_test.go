package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/transcriber/internal/domain"
	"github.com/Vovarama1992/transcriber/internal/domain/stations"
	"github.com/Vovarama1992/transcriber/internal/models"
	"github.com/Vovarama1992/transcriber/internal/ports"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func nopLogger() *logger.ZapLogger {
	return logger.NewZapLogger(zap.NewNop().Sugar())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// fakeOrigin serves /a.mp3 and answers 404 to everything else.
func fakeOrigin() *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path == "/a.mp3" {
			return &http.Response{
				StatusCode: http.StatusOK,
				Status:     "200 OK",
				Body:       io.NopCloser(strings.NewReader("ID3 fake mp3")),
				Header:     make(http.Header),
				Request:    r,
			}, nil
		}
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Status:     "404 Not Found",
			Body:       io.NopCloser(strings.NewReader("not found")),
			Header:     make(http.Header),
			Request:    r,
		}, nil
	})}
}

type failingRunner struct{}

func (failingRunner) Run(context.Context, string, ...string) (stations.CommandResult, error) {
	return stations.CommandResult{
		Output:   "ERROR: Unsupported URL: https://example.com/watch",
		ExitCode: 1,
	}, errors.New("exit status 1")
}

type stubModel struct {
	segments []models.TranscriptSegment
	language string
	err      error
}

func (m *stubModel) Name() string { return "stub" }

func (m *stubModel) Transcribe(context.Context, string, ports.DecodeOptions) ([]models.TranscriptSegment, ports.ModelInfo, error) {
	return m.segments, ports.ModelInfo{Language: m.language}, m.err
}

func newTestRouter(t *testing.T, model ports.SpeechModel, journal ports.RequestJournal) http.Handler {
	t.Helper()
	log := nopLogger()

	s1 := stations.NewS1ClassifyURL(nil, nil, log)
	s2 := stations.NewS2FetchDirect(fakeOrigin(), 0, log)
	s3 := stations.NewS3ExtractYtdlp(stations.YtdlpConfig{Runner: failingRunner{}}, log)
	s4 := stations.NewS4AudioToText(model, log)

	resolver := domain.NewSourceResolver(s1, s2, s3, log)
	svc := domain.NewTranscriptionService(resolver, s4, journal, domain.ServiceConfig{WorkspaceRoot: t.TempDir()}, log)

	var hRequests *RequestsHandler
	if journal != nil {
		hRequests = NewRequestsHandler(journal, log)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, NewTranscribeHandler(svc, log), NewHealthHandler("whisper-base"), hRequests, nil)
	return r
}

func postTranscribe(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/transcribe", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func helloWorldModel() *stubModel {
	return &stubModel{
		segments: []models.TranscriptSegment{
			{Text: "hello", Start: 0, End: 0.5},
			{Text: "world", Start: 0.5, End: 1.1},
		},
		language: "en",
	}
}

func TestTranscribeHappyPath(t *testing.T) {
	h := newTestRouter(t, helloWorldModel(), nil)

	rec, out := postTranscribe(t, h, `{"url":"https://example.com/a.mp3"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "hello world", out["text"])
	assert.Equal(t, "en", out["language"])
	assert.Equal(t, "direct_url", out["audio_source"])

	segs, ok := out["segments"].([]any)
	require.True(t, ok)
	require.Len(t, segs, 2)
	first := segs[0].(map[string]any)
	second := segs[1].(map[string]any)
	assert.Equal(t, "hello", first["text"])
	assert.Equal(t, "world", second["text"])
	assert.Less(t, first["start"].(float64), second["start"].(float64))
}

func TestTranscribeEmptySegmentsIsArray(t *testing.T) {
	h := newTestRouter(t, &stubModel{language: "en"}, nil)

	rec, _ := postTranscribe(t, h, `{"url":"https://example.com/a.mp3"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"segments":[]`)
	assert.Contains(t, rec.Body.String(), `"text":""`)
}

func TestTranscribeBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty object", `{}`, "URL is required"},
		{"empty body", ``, "No data provided"},
		{"null", `null`, "No data provided"},
		{"malformed", `{"url":`, "invalid json"},
		{"relative url", `{"url":"a.mp3"}`, "URL must be an absolute http(s) URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, helloWorldModel(), nil)

			rec, out := postTranscribe(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, out["error"], tt.want)
		})
	}
}

func TestTranscribeResolutionFailureSurfacesToolError(t *testing.T) {
	h := newTestRouter(t, helloWorldModel(), nil)

	rec, out := postTranscribe(t, h, `{"url":"https://example.com/watch"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	msg, _ := out["error"].(string)
	assert.True(t, strings.HasPrefix(msg, "Failed to download audio: "), msg)
	assert.Contains(t, msg, "yt-dlp failed")
	assert.Contains(t, msg, "Unsupported URL")
}

func TestTranscribeDirectNotFound(t *testing.T) {
	h := newTestRouter(t, helloWorldModel(), nil)

	rec, out := postTranscribe(t, h, `{"url":"https://example.com/missing.mp3"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out["error"], "404")
}

func TestTranscribeModelFailure(t *testing.T) {
	h := newTestRouter(t, &stubModel{err: errors.New("worker exited")}, nil)

	rec, out := postTranscribe(t, h, `{"url":"https://example.com/a.mp3"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Transcription failed: worker exited", out["error"])
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, helloWorldModel(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","model":"whisper-base"}`, rec.Body.String())
}

func TestMetrics(t *testing.T) {
	h := newTestRouter(t, helloWorldModel(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "requests ")
	assert.Contains(t, rec.Body.String(), "fallbacks ")
}

func TestRequestsRouteDisabledWithoutJournal(t *testing.T) {
	h := newTestRouter(t, helloWorldModel(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/requests", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTranscribeURLWithSurroundingSpaces(t *testing.T) {
	h := newTestRouter(t, helloWorldModel(), nil)

	rec, out := postTranscribe(t, h, `{"url":"  https://example.com/a.mp3  "}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "hello world", out["text"])
	assert.Equal(t, "direct_url", out["audio_source"])
}
