package stations

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/transcriber/internal/models"
)

const (
	DirectFileName       = "direct_audio.mp3"
	DefaultDirectTimeout = 60 * time.Second
	maxStatusBodyDiscard = 4 << 10
	directFetchUserAgent = "transcriber/1.0"
)

// FetchStatusError is returned when the server answers with a non-2xx status.
type FetchStatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *FetchStatusError) Error() string {
	return fmt.Sprintf("http %s for url: %s", e.Status, e.URL)
}

type S2FetchDirect struct {
	client  *http.Client
	timeout time.Duration
	log     *logger.ZapLogger
}

// NewS2FetchDirect uses http.DefaultClient when client is nil.
func NewS2FetchDirect(client *http.Client, timeout time.Duration, log *logger.ZapLogger) *S2FetchDirect {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultDirectTimeout
	}
	return &S2FetchDirect{client: client, timeout: timeout, log: log}
}

// Run downloads audioURL verbatim into dir/DirectFileName.
func (s *S2FetchDirect) Run(ctx context.Context, audioURL, dir string) (models.ResolvedAudio, error) {
	start := time.Now()
	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[S2][START]",
		Fields:  map[string]any{"url": trim(audioURL, 180)},
	})

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return models.ResolvedAudio{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", directFetchUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.fail(err)
		return models.ResolvedAudio{}, fmt.Errorf("direct fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxStatusBodyDiscard))
		err := &FetchStatusError{URL: audioURL, StatusCode: resp.StatusCode, Status: resp.Status}
		s.fail(err)
		return models.ResolvedAudio{}, err
	}

	filePath := filepath.Join(dir, DirectFileName)
	n, err := writeBody(filePath, resp.Body)
	if err != nil {
		_ = os.Remove(filePath)
		s.fail(err)
		return models.ResolvedAudio{}, fmt.Errorf("direct fetch: %w", err)
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[S2][OK]",
		Fields: map[string]any{
			"bytes": n,
			"dur":   time.Since(start).String(),
		},
	})

	return models.ResolvedAudio{FilePath: filePath, Source: models.AudioSourceDirectURL}, nil
}

func (s *S2FetchDirect) fail(err error) {
	s.log.Log(logger.LogEntry{
		Level:   "warn",
		Message: "[S2][ERR]",
		Error:   err,
	})
}

func writeBody(filePath string, body io.Reader) (int64, error) {
	f, err := os.Create(filePath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", filepath.Base(filePath), err)
	}

	n, err := io.Copy(f, body)
	closeErr := f.Close()
	if err != nil {
		return n, fmt.Errorf("read body: %w", err)
	}
	if closeErr != nil {
		return n, fmt.Errorf("close %s: %w", filepath.Base(filePath), closeErr)
	}
	return n, nil
}
