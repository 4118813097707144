package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/prasannasamana/ai-reel-generator/internal/reels/models"
)

type ReelRepository interface {
	Create(ctx context.Context, job *models.ReelJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ReelJob, error)
	List(ctx context.Context, f models.ListFilter) ([]models.ReelJob, error)
	Count(ctx context.Context, f models.ListFilter) (int, error)
	// Update persists the row if job.Version still matches the stored
	// version, bumps the version and returns the stored row. Returns
	// models.ErrConflict when a concurrent writer got there first.
	Update(ctx context.Context, job *models.ReelJob) (*models.ReelJob, error)
	// UpdateWithEvent is Update plus an outbox insert in the same
	// transaction, for status-changing saves.
	UpdateWithEvent(ctx context.Context, job *models.ReelJob, event models.DomainEvent) (*models.ReelJob, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
