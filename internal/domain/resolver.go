package domain

import (
	"context"
	"errors"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/transcriber/internal/domain/stations"
	"github.com/Vovarama1992/transcriber/internal/models"
)

// AudioStrategy places one audio file for url inside dir.
type AudioStrategy interface {
	Run(ctx context.Context, url, dir string) (models.ResolvedAudio, error)
}

type attempt struct {
	name     string
	strategy AudioStrategy
	counter  func()
}

// SourceResolver turns a media URL into a local audio file.
type SourceResolver struct {
	s1     *stations.S1ClassifyURL
	direct AudioStrategy
	tool   AudioStrategy
	log    *logger.ZapLogger
}

func NewSourceResolver(
	s1 *stations.S1ClassifyURL,
	direct AudioStrategy,
	tool AudioStrategy,
	log *logger.ZapLogger,
) *SourceResolver {
	return &SourceResolver{s1: s1, direct: direct, tool: tool, log: log}
}

// Resolve runs the attempt plan for the URL's class. Attempts run in order
// until one succeeds; the error of the last attempt is the one returned.
func (r *SourceResolver) Resolve(ctx context.Context, url, dir string) (models.ResolvedAudio, error) {
	plan := r.plan(r.s1.Run(url))

	var lastErr error
	for i, a := range plan {
		a.counter()
		audio, err := a.strategy.Run(ctx, url, dir)
		if err == nil {
			return audio, nil
		}
		lastErr = err

		if i < len(plan)-1 {
			metrics.Fallbacks.Add(1)
			r.log.Log(logger.LogEntry{
				Level:   "warn",
				Message: "[RESOLVE][FALLBACK]",
				Fields:  map[string]any{"failed": a.name, "next": plan[i+1].name},
				Error:   err,
			})
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no resolution strategy available")
	}
	return models.ResolvedAudio{}, lastErr
}

func (r *SourceResolver) plan(kind stations.SourceKind) []attempt {
	direct := attempt{name: "direct", strategy: r.direct, counter: func() { metrics.DirectFetches.Add(1) }}
	tool := attempt{name: "yt-dlp", strategy: r.tool, counter: func() { metrics.ToolRuns.Add(1) }}

	switch kind {
	case stations.SourceDirect:
		return []attempt{direct}
	case stations.SourceExternalTool:
		return []attempt{tool}
	default:
		return []attempt{direct, tool}
	}
}
