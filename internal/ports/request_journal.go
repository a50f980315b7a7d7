package ports

import (
	"context"

	"github.com/Vovarama1992/transcriber/internal/models"
)

type RequestJournal interface {
	Record(ctx context.Context, rec models.RequestRecord) error
	Recent(ctx context.Context, limit int) ([]models.RequestRecord, error)
}
