package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/transcriber/internal/config"
	"github.com/Vovarama1992/transcriber/internal/delivery"
	ws "github.com/Vovarama1992/transcriber/internal/delivery/ws"
	"github.com/Vovarama1992/transcriber/internal/domain"
	"github.com/Vovarama1992/transcriber/internal/domain/stations"
	"github.com/Vovarama1992/transcriber/internal/infra"
	"github.com/Vovarama1992/transcriber/internal/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {

	// LOGGER
	zcore, _ := zap.NewProduction()
	defer func() { _ = zcore.Sync() }()
	zl := logger.NewZapLogger(zcore.Sugar())

	// ENV
	cfg := config.Load()

	if cfg.YtdlpCookieFile == "" {
		zl.Log(logger.LogEntry{
			Level:   "warn",
			Message: "YTDLP_COOKIES_FILE is not set; yt-dlp may fail on YouTube",
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// MODEL (грузим один раз до приёма трафика)
	model, closeModel, err := newSpeechModel(ctx, cfg, zl)
	if err != nil {
		panic("model init failed: " + err.Error())
	}
	defer closeModel()

	// POSTGRES (опционально)
	var journal ports.RequestJournal
	var hRequests *delivery.RequestsHandler
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewPgxPool(ctx, cfg.DatabaseURL)
		if err != nil {
			panic(err.Error())
		}
		defer pool.Close()

		if err := infra.EnsureRequestSchema(ctx, pool); err != nil {
			panic(err.Error())
		}
		journal = infra.NewPostgresRequestJournal(pool)
		hRequests = delivery.NewRequestsHandler(journal, zl)
	}

	// STATIONS
	s1 := stations.NewS1ClassifyURL(cfg.DirectAudioExtensions, cfg.ExternalToolHosts, zl)
	s2 := stations.NewS2FetchDirect(&http.Client{}, cfg.DirectFetchTimeout, zl)
	s3 := stations.NewS3ExtractYtdlp(stations.YtdlpConfig{
		Path:       cfg.YtdlpPath,
		CookieFile: cfg.YtdlpCookieFile,
		Timeout:    cfg.YtdlpTimeout,
	}, zl)
	s4 := stations.NewS4AudioToText(model, zl)

	// TRANSCRIPTION SERVICE (оркестратор)
	resolver := domain.NewSourceResolver(s1, s2, s3, zl)
	svc := domain.NewTranscriptionService(resolver, s4, journal, domain.ServiceConfig{
		WorkspaceRoot:   cfg.WorkspaceRoot,
		DefaultLanguage: cfg.DefaultLanguage,
	}, zl)

	// WS HUB
	hub := ws.NewHub(zl)

	// ROUTER
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	delivery.RegisterRoutes(r,
		delivery.NewTranscribeHandler(svc, zl),
		delivery.NewHealthHandler(cfg.ModelLabel()),
		hRequests,
		ws.WSHandler(hub, zl),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// BROADCAST LISTENER
	g.Go(func() error {
		ws.Pump(gctx, hub, svc.Events(), zl)
		return nil
	})

	g.Go(func() error {
		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "server started",
			Fields:  map[string]any{"port": cfg.Port, "model": model.Name()},
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zl.Log(logger.LogEntry{
			Level:   "error",
			Message: "server crashed",
			Error:   err,
		})
	}
}

func newSpeechModel(ctx context.Context, cfg config.Config, zl *logger.ZapLogger) (ports.SpeechModel, func(), error) {
	switch cfg.ModelBackend {
	case config.BackendOpenAI:
		m, err := infra.NewOpenAIWhisperModel(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return m, func() {}, nil
	default:
		m, err := infra.NewFasterWhisperModel(ctx, infra.FasterWhisperConfig{
			Python:       cfg.WhisperPython,
			Model:        cfg.WhisperModel,
			Device:       cfg.WhisperDevice,
			ComputeType:  cfg.WhisperComputeType,
			StartTimeout: cfg.WhisperStartup,
		}, zl)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { _ = m.Close() }, nil
	}
}
