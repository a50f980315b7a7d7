package models

import "time"

const (
	RequestStatusDone   = "done"
	RequestStatusFailed = "failed"
)

// RequestRecord is one journal row. Transcript text is never stored.
type RequestRecord struct {
	ID                string      `db:"id" json:"id"`
	SourceURL         string      `db:"source_url" json:"source_url"`
	AudioSource       AudioSource `db:"audio_source" json:"audio_source,omitempty"`
	RequestedLanguage string      `db:"requested_language" json:"requested_language,omitempty"`
	DetectedLanguage  string      `db:"detected_language" json:"detected_language,omitempty"`
	SegmentCount      int         `db:"segment_count" json:"segment_count"`
	Status            string      `db:"status" json:"status"`
	Error             string      `db:"error" json:"error,omitempty"`
	DurationMs        int64       `db:"duration_ms" json:"duration_ms"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
}
