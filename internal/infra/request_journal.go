package infra

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/transcriber/internal/models"
	"github.com/Vovarama1992/transcriber/internal/ports"
	"github.com/jackc/pgx/v5/pgxpool"
)

var journalSchema = []string{`
	CREATE TABLE IF NOT EXISTS transcription_request (
		id                 UUID PRIMARY KEY,
		source_url         TEXT        NOT NULL,
		audio_source       TEXT        NOT NULL DEFAULT '',
		requested_language TEXT        NOT NULL DEFAULT '',
		detected_language  TEXT        NOT NULL DEFAULT '',
		segment_count      INTEGER     NOT NULL DEFAULT 0,
		status             TEXT        NOT NULL,
		error              TEXT        NOT NULL DEFAULT '',
		duration_ms        BIGINT      NOT NULL DEFAULT 0,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, `
	CREATE INDEX IF NOT EXISTS transcription_request_created_at_idx
		ON transcription_request (created_at DESC)`,
}

type PostgresRequestJournal struct {
	pool *pgxpool.Pool
}

func NewPostgresRequestJournal(pool *pgxpool.Pool) ports.RequestJournal {
	return &PostgresRequestJournal{pool: pool}
}

// EnsureRequestSchema creates the journal table when it is missing.
func EnsureRequestSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range journalSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure journal schema: %w", err)
		}
	}
	return nil
}

func (r *PostgresRequestJournal) Record(ctx context.Context, rec models.RequestRecord) error {
	query := `
		INSERT INTO transcription_request (
			id, source_url, audio_source, requested_language, detected_language,
			segment_count, status, error, duration_ms, created_at
		)
		VALUES ($1::text::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.SourceURL,
		string(rec.AudioSource),
		rec.RequestedLanguage,
		rec.DetectedLanguage,
		rec.SegmentCount,
		rec.Status,
		rec.Error,
		rec.DurationMs,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (r *PostgresRequestJournal) Recent(ctx context.Context, limit int) ([]models.RequestRecord, error) {
	query := `
		SELECT id::text, source_url, audio_source, requested_language, detected_language,
		       segment_count, status, error, duration_ms, created_at
		FROM transcription_request
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("recent requests: %w", err)
	}
	defer rows.Close()

	out := make([]models.RequestRecord, 0, limit)
	for rows.Next() {
		var (
			rec    models.RequestRecord
			source string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.SourceURL,
			&source,
			&rec.RequestedLanguage,
			&rec.DetectedLanguage,
			&rec.SegmentCount,
			&rec.Status,
			&rec.Error,
			&rec.DurationMs,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		rec.AudioSource = models.AudioSource(source)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent requests: %w", err)
	}
	return out, nil
}
