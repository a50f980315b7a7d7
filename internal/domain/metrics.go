package domain

import (
	"fmt"
	"strings"
	"sync/atomic"
)

var metrics struct {
	Requests            atomic.Int64
	ValidationErrors    atomic.Int64
	DirectFetches       atomic.Int64
	ToolRuns            atomic.Int64
	Fallbacks           atomic.Int64
	ResolutionErrors    atomic.Int64
	TranscriptionErrors atomic.Int64
	Transcribed         atomic.Int64
	CleanupErrors       atomic.Int64
}

var metricKeys = []string{
	"requests",
	"validation_errors",
	"direct_fetches",
	"tool_runs",
	"fallbacks",
	"resolution_errors",
	"transcription_errors",
	"transcribed",
	"cleanup_errors",
}

// GetMetrics returns a snapshot of all counters.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"requests":             metrics.Requests.Load(),
		"validation_errors":    metrics.ValidationErrors.Load(),
		"direct_fetches":       metrics.DirectFetches.Load(),
		"tool_runs":            metrics.ToolRuns.Load(),
		"fallbacks":            metrics.Fallbacks.Load(),
		"resolution_errors":    metrics.ResolutionErrors.Load(),
		"transcription_errors": metrics.TranscriptionErrors.Load(),
		"transcribed":          metrics.Transcribed.Load(),
		"cleanup_errors":       metrics.CleanupErrors.Load(),
	}
}

// FormatMetrics renders counters as "name value" lines.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}
