package stations

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/transcriber/internal/models"
)

const (
	YtdlpOutputPrefix    = "ytdlp_audio"
	DefaultYtdlpTimeout  = 10 * time.Minute
	ytdlpAudioFormat     = "mp3"
	ytdlpSocketTimeout   = 30
	ytdlpRetries         = 3
	maxToolOutputInError = 500
)

// ErrNoOutput means yt-dlp exited cleanly but left no audio file behind.
var ErrNoOutput = errors.New("yt-dlp reported success but produced no output file")

// ToolError is a non-zero yt-dlp exit; Output holds the tail of stdout+stderr.
type ToolError struct {
	ExitCode int
	Output   string
	Err      error
}

func (e *ToolError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("yt-dlp failed (exit %d): %v", e.ExitCode, e.Err)
	}
	return fmt.Sprintf("yt-dlp failed (exit %d): %s", e.ExitCode, e.Output)
}

func (e *ToolError) Unwrap() error { return e.Err }

type YtdlpConfig struct {
	Path       string
	CookieFile string
	Timeout    time.Duration
	Runner     CommandRunner // nil = os/exec
}

type S3ExtractYtdlp struct {
	bin        string
	cookieFile string
	timeout    time.Duration
	runner     CommandRunner
	glob       func(pattern string) ([]string, error)
	log        *logger.ZapLogger
}

func NewS3ExtractYtdlp(cfg YtdlpConfig, log *logger.ZapLogger) *S3ExtractYtdlp {
	s := &S3ExtractYtdlp{
		bin:        cfg.Path,
		cookieFile: cfg.CookieFile,
		timeout:    cfg.Timeout,
		runner:     cfg.Runner,
		glob:       filepath.Glob,
		log:        log,
	}
	if s.bin == "" {
		s.bin = "yt-dlp"
	}
	if s.timeout <= 0 {
		s.timeout = DefaultYtdlpTimeout
	}
	if s.runner == nil {
		s.runner = execRunner{}
	}
	return s
}

// Run extracts the best audio track of pageURL into dir.
func (s *S3ExtractYtdlp) Run(ctx context.Context, pageURL, dir string) (models.ResolvedAudio, error) {
	start := time.Now()
	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[S3][START]",
		Fields:  map[string]any{"page": trim(pageURL, 180)},
	})

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := buildYtdlpArgs(pageURL, dir, s.cookieFile)
	res, err := s.runner.Run(ctx, s.bin, args...)
	if err != nil {
		toolErr := &ToolError{
			ExitCode: res.ExitCode,
			Output:   trimTail(res.Output, maxToolOutputInError),
			Err:      err,
		}
		s.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "[S3][ERR-exec]",
			Fields:  map[string]any{"exit": res.ExitCode, "raw": trimTail(res.Output, 280)},
			Error:   err,
		})
		return models.ResolvedAudio{}, toolErr
	}

	filePath, err := s.findOutput(dir)
	if err != nil {
		s.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "[S3][ERR] no output",
			Fields:  map[string]any{"raw": trimTail(res.Output, 280)},
			Error:   err,
		})
		return models.ResolvedAudio{}, err
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[S3][OK]",
		Fields: map[string]any{
			"file": filepath.Base(filePath),
			"dur":  time.Since(start).String(),
		},
	})

	return models.ResolvedAudio{FilePath: filePath, Source: models.AudioSourceExternalTool}, nil
}

func (s *S3ExtractYtdlp) findOutput(dir string) (string, error) {
	matches, err := s.glob(filepath.Join(dir, YtdlpOutputPrefix+".*"))
	if err != nil {
		return "", fmt.Errorf("glob output: %w", err)
	}

	var files []string
	for _, m := range matches {
		// недокачанные фрагменты не считаем результатом
		if strings.HasSuffix(m, ".part") || strings.HasSuffix(m, ".ytdl") {
			continue
		}
		files = append(files, m)
	}
	if len(files) == 0 {
		return "", ErrNoOutput
	}

	sort.Strings(files)
	return files[0], nil
}

func buildYtdlpArgs(pageURL, dir, cookieFile string) []string {
	args := []string{
		"-f", "bestaudio/best",
		"--no-playlist",
		"-x",
		"--audio-format", ytdlpAudioFormat,
		"--restrict-filenames",
		"--socket-timeout", strconv.Itoa(ytdlpSocketTimeout),
		"--retries", strconv.Itoa(ytdlpRetries),
		"-o", filepath.Join(dir, YtdlpOutputPrefix+".%(ext)s"),
	}

	// если куки есть → добавляем
	if cookieFile != "" {
		args = append(args, "--cookies", cookieFile)
	}

	return append(args, "--", pageURL)
}
