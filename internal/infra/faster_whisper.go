package infra

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/transcriber/internal/models"
	"github.com/Vovarama1992/transcriber/internal/ports"
)

//go:embed assets/faster_whisper_worker.py
var workerScript []byte

type FasterWhisperConfig struct {
	Python       string
	Model        string
	Device       string
	ComputeType  string
	StartTimeout time.Duration
}

type workerRequest struct {
	Path           string `json:"path"`
	Language       string `json:"language,omitempty"`
	BeamSize       int    `json:"beam_size"`
	VADFilter      bool   `json:"vad_filter"`
	WordTimestamps bool   `json:"word_timestamps"`
}

type workerReply struct {
	Ready               *bool                      `json:"ready,omitempty"`
	Error               string                     `json:"error,omitempty"`
	Language            string                     `json:"language"`
	LanguageProbability float64                    `json:"language_probability"`
	Duration            float64                    `json:"duration"`
	Segments            []models.TranscriptSegment `json:"segments"`
}

// workerConn speaks the JSON-lines protocol of the worker script.
type workerConn struct {
	w io.Writer
	r *bufio.Reader
}

func newWorkerConn(w io.Writer, r io.Reader) *workerConn {
	return &workerConn{w: w, r: bufio.NewReader(r)}
}

func (c *workerConn) readReply() (workerReply, error) {
	line, err := c.r.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return workerReply{}, errors.New("worker exited")
		}
		return workerReply{}, fmt.Errorf("read worker reply: %w", err)
	}

	var rep workerReply
	if err := json.Unmarshal(line, &rep); err != nil {
		return workerReply{}, fmt.Errorf("decode worker reply: %w", err)
	}
	return rep, nil
}

func (c *workerConn) awaitReady() error {
	rep, err := c.readReply()
	if err != nil {
		return err
	}
	if rep.Ready == nil || !*rep.Ready {
		if rep.Error != "" {
			return fmt.Errorf("model load failed: %s", rep.Error)
		}
		return errors.New("worker did not report ready")
	}
	return nil
}

func (c *workerConn) call(req workerRequest) (workerReply, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return workerReply{}, err
	}
	if _, err := c.w.Write(append(b, '\n')); err != nil {
		return workerReply{}, fmt.Errorf("write worker request: %w", err)
	}

	rep, err := c.readReply()
	if err != nil {
		return workerReply{}, err
	}
	if rep.Error != "" {
		return workerReply{}, &WorkerError{Message: rep.Error}
	}
	return rep, nil
}

// WorkerError is an exception raised inside the model; the worker survives it.
type WorkerError struct {
	Message string
}

func (e *WorkerError) Error() string { return e.Message }

func isModelError(err error) bool {
	var werr *WorkerError
	return errors.As(err, &werr)
}

type workerProcess struct {
	cmd  *exec.Cmd
	conn *workerConn
	in   io.Closer
}

func (p *workerProcess) kill() {
	_ = p.in.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.cmd.Wait()
}

// FasterWhisperModel keeps one Python worker with the model loaded. The
// worker handles one file at a time, so calls are serialized.
type FasterWhisperModel struct {
	cfg        FasterWhisperConfig
	scriptPath string
	log        *logger.ZapLogger

	mu   sync.Mutex
	proc *workerProcess
}

// NewFasterWhisperModel starts the worker and blocks until the model is loaded.
func NewFasterWhisperModel(ctx context.Context, cfg FasterWhisperConfig, log *logger.ZapLogger) (*FasterWhisperModel, error) {
	if cfg.Python == "" {
		cfg.Python = "python3"
	}
	if cfg.Model == "" {
		cfg.Model = "base"
	}
	if cfg.Device == "" {
		cfg.Device = "cpu"
	}
	if cfg.ComputeType == "" {
		cfg.ComputeType = "int8"
	}
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = 10 * time.Minute
	}

	f, err := os.CreateTemp("", "faster_whisper_worker-*.py")
	if err != nil {
		return nil, fmt.Errorf("write worker script: %w", err)
	}
	if _, err := f.Write(workerScript); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write worker script: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("write worker script: %w", err)
	}

	m := &FasterWhisperModel{cfg: cfg, scriptPath: f.Name(), log: log}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.start(ctx); err != nil {
		os.Remove(m.scriptPath)
		return nil, err
	}
	return m, nil
}

func (m *FasterWhisperModel) Name() string { return "faster-whisper-" + m.cfg.Model }

// start must be called with mu held.
func (m *FasterWhisperModel) start(ctx context.Context) error {
	start := time.Now()
	m.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[MODEL][LOAD]",
		Fields: map[string]any{
			"model":        m.cfg.Model,
			"device":       m.cfg.Device,
			"compute_type": m.cfg.ComputeType,
		},
	})

	cmd := exec.Command(m.cfg.Python, m.scriptPath,
		"--model", m.cfg.Model,
		"--device", m.cfg.Device,
		"--compute-type", m.cfg.ComputeType,
	)
	cmd.Env = os.Environ()
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("worker stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	proc := &workerProcess{cmd: cmd, conn: newWorkerConn(stdin, stdout), in: stdin}

	ready := make(chan error, 1)
	go func() { ready <- proc.conn.awaitReady() }()

	timer := time.NewTimer(m.cfg.StartTimeout)
	defer timer.Stop()

	select {
	case err = <-ready:
	case <-timer.C:
		err = fmt.Errorf("model load timed out after %s", m.cfg.StartTimeout)
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		proc.kill()
		return err
	}

	m.proc = proc
	m.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[MODEL][READY]",
		Fields:  map[string]any{"model": m.cfg.Model, "dur": time.Since(start).String()},
	})
	return nil
}

func (m *FasterWhisperModel) Transcribe(
	ctx context.Context,
	audioPath string,
	opts ports.DecodeOptions,
) ([]models.TranscriptSegment, ports.ModelInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.proc == nil {
		// воркер умер на прошлом запросе, поднимаем заново
		if err := m.start(ctx); err != nil {
			return nil, ports.ModelInfo{}, err
		}
	}

	type result struct {
		rep workerReply
		err error
	}
	done := make(chan result, 1)
	proc := m.proc
	go func() {
		rep, err := proc.conn.call(workerRequest{
			Path:           audioPath,
			Language:       opts.Language,
			BeamSize:       opts.BeamSize,
			VADFilter:      opts.VADFilter,
			WordTimestamps: opts.WordTimestamps,
		})
		done <- result{rep: rep, err: err}
	}()

	select {
	case <-ctx.Done():
		proc.kill()
		m.proc = nil
		return nil, ports.ModelInfo{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			if !isModelError(r.err) {
				proc.kill()
				m.proc = nil
			}
			return nil, ports.ModelInfo{}, r.err
		}
		return r.rep.Segments, ports.ModelInfo{
			Language:            r.rep.Language,
			LanguageProbability: r.rep.LanguageProbability,
			Duration:            r.rep.Duration,
		}, nil
	}
}

// Close stops the worker and removes the script.
func (m *FasterWhisperModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.proc != nil {
		m.proc.kill()
		m.proc = nil
	}
	return os.Remove(m.scriptPath)
}
