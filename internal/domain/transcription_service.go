package domain

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/transcriber/internal/domain/stations"
	"github.com/Vovarama1992/transcriber/internal/models"
	"github.com/Vovarama1992/transcriber/internal/ports"
	"github.com/google/uuid"
)

const (
	eventBuffer    = 100
	journalTimeout = 5 * time.Second
)

const (
	msgURLRequired    = "URL is required"
	msgURLNotAbsolute = "URL must be an absolute http(s) URL"
	msgDownloadFailed = "Failed to download audio: "
	msgTranscribeFail = "Transcription failed: "
	msgWorkspaceFail  = "Failed to prepare workspace: "
)

type ServiceConfig struct {
	WorkspaceRoot   string
	DefaultLanguage string
}

type TranscriptionService struct {
	resolver *SourceResolver
	s4       *stations.S4AudioToText
	journal  ports.RequestJournal // nil = журнал выключен
	log      *logger.ZapLogger
	cfg      ServiceConfig

	events chan ports.StageEvent
	now    func() time.Time
}

func NewTranscriptionService(
	resolver *SourceResolver,
	s4 *stations.S4AudioToText,
	journal ports.RequestJournal,
	cfg ServiceConfig,
	log *logger.ZapLogger,
) *TranscriptionService {
	return &TranscriptionService{
		resolver: resolver,
		s4:       s4,
		journal:  journal,
		log:      log,
		cfg:      cfg,
		events:   make(chan ports.StageEvent, eventBuffer),
		now:      time.Now,
	}
}

func (s *TranscriptionService) Events() <-chan ports.StageEvent { return s.events }

// Transcribe resolves req.URL to audio, transcribes it and removes every
// temporary file before returning. Errors are *PipelineError.
//
// A client disconnect does not cancel the work in flight.
func (s *TranscriptionService) Transcribe(
	ctx context.Context,
	req models.TranscriptionRequest,
) (*models.TranscriptionResult, error) {
	ctx = context.WithoutCancel(ctx)
	req.URL = strings.TrimSpace(req.URL)

	id := uuid.NewString()
	start := s.now()
	metrics.Requests.Add(1)

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[REQ][START]",
		Fields:  map[string]any{"id": id, "url": req.URL, "language": req.Language},
	})
	s.emit(ports.StageEvent{RequestID: id, Stage: ports.StageStarted, URL: req.URL, Language: req.Language})

	res, err := s.run(ctx, id, req)

	rec := models.RequestRecord{
		ID:                id,
		SourceURL:         req.URL,
		RequestedLanguage: req.Language,
		DurationMs:        s.now().Sub(start).Milliseconds(),
		CreatedAt:         start,
	}

	if err != nil {
		s.countFailure(err)
		rec.Status = models.RequestStatusFailed
		rec.Error = err.Error()
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "[REQ][ERR]",
			Fields:  map[string]any{"id": id, "dur": time.Duration(rec.DurationMs) * time.Millisecond},
			Error:   err,
		})
		s.emit(ports.StageEvent{RequestID: id, Stage: ports.StageFailed, URL: req.URL, Error: err.Error()})
		s.record(ctx, rec)
		return nil, err
	}

	metrics.Transcribed.Add(1)
	rec.Status = models.RequestStatusDone
	rec.AudioSource = res.AudioSource
	rec.DetectedLanguage = res.Language
	rec.SegmentCount = len(res.Segments)

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[REQ][DONE]",
		Fields: map[string]any{
			"id":       id,
			"source":   string(res.AudioSource),
			"language": res.Language,
			"segments": len(res.Segments),
			"dur":      time.Duration(rec.DurationMs) * time.Millisecond,
		},
	})
	s.emit(ports.StageEvent{
		RequestID:   id,
		Stage:       ports.StageTranscribed,
		URL:         req.URL,
		AudioSource: res.AudioSource,
		Language:    res.Language,
	})
	s.record(ctx, rec)

	return res, nil
}

func (s *TranscriptionService) run(
	ctx context.Context,
	id string,
	req models.TranscriptionRequest,
) (*models.TranscriptionResult, error) {
	if perr := validateRequest(req); perr != nil {
		return nil, perr
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = s.cfg.DefaultLanguage
	}

	ws, werr := AcquireWorkspace(s.cfg.WorkspaceRoot)
	if werr != nil {
		return nil, &PipelineError{Stage: StageWorkspace, Message: msgWorkspaceFail + werr.Error(), Err: werr}
	}

	var audio *models.ResolvedAudio
	defer func() {
		// ошибки уборки только логируем, основной результат не трогаем
		if rerr := ws.Release(audio); rerr != nil {
			metrics.CleanupErrors.Add(1)
			s.log.Log(logger.LogEntry{
				Level:   "warn",
				Message: "[CLEANUP][ERR]",
				Fields:  map[string]any{"id": id, "dir": ws.Dir},
				Error:   rerr,
			})
		}
	}()

	resolved, rerr := s.resolver.Resolve(ctx, req.URL, ws.Dir)
	if rerr != nil {
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "[RESOLVE][ERR]",
			Fields:  map[string]any{"id": id, "url": req.URL},
			Error:   rerr,
		})
		return nil, &PipelineError{Stage: StageResolve, Message: msgDownloadFailed + rerr.Error(), Err: rerr}
	}
	audio = &resolved

	s.emit(ports.StageEvent{RequestID: id, Stage: ports.StageResolved, URL: req.URL, AudioSource: resolved.Source})

	out, terr := s.s4.Run(ctx, resolved, language)
	if terr != nil {
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "[TRANSCRIBE][ERR]",
			Fields:  map[string]any{"id": id, "source": string(resolved.Source)},
			Error:   terr,
		})
		return nil, &PipelineError{Stage: StageTranscribe, Message: msgTranscribeFail + terr.Error(), Err: terr}
	}

	return out, nil
}

func validateRequest(req models.TranscriptionRequest) *PipelineError {
	if req.URL == "" {
		return &PipelineError{Stage: StageValidate, Message: msgURLRequired}
	}

	u, err := url.Parse(req.URL)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &PipelineError{Stage: StageValidate, Message: msgURLNotAbsolute, Err: err}
	}
	return nil
}

func (s *TranscriptionService) countFailure(err error) {
	var perr *PipelineError
	if !errors.As(err, &perr) {
		return
	}
	switch perr.Stage {
	case StageValidate:
		metrics.ValidationErrors.Add(1)
	case StageResolve:
		metrics.ResolutionErrors.Add(1)
	case StageTranscribe:
		metrics.TranscriptionErrors.Add(1)
	}
}

// emit never blocks a request: events are dropped when nobody drains them.
func (s *TranscriptionService) emit(ev ports.StageEvent) {
	ev.At = s.now()
	select {
	case s.events <- ev:
	default:
		s.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "[EVENTS][DROP]",
			Fields:  map[string]any{"id": ev.RequestID, "stage": ev.Stage},
		})
	}
}

func (s *TranscriptionService) record(ctx context.Context, rec models.RequestRecord) {
	if s.journal == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, journalTimeout)
	defer cancel()

	if err := s.journal.Record(ctx, rec); err != nil {
		s.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "[JOURNAL][ERR]",
			Fields:  map[string]any{"id": rec.ID},
			Error:   err,
		})
	}
}
