package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prasannasamana/ai-reel-generator/internal/reels/models"
)

const reelColumns = `id, status, tone, original_script, final_script, script_approved,
	image_path, audio_path, video_path, error_message, version, created_at, updated_at`

type ReelRepo struct {
	db     *sqlx.DB
	outbox *OutboxRepo
}

func NewReelRepo(db *sqlx.DB) *ReelRepo {
	return &ReelRepo{db: db, outbox: NewOutboxRepo(db)}
}

func (r *ReelRepo) Create(ctx context.Context, job *models.ReelJob) error {
	const q = `
		INSERT INTO reel_jobs (` + reelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, q,
		job.ID, job.Status, job.Tone, job.OriginalScript, job.FinalScript, job.ScriptApproved,
		job.ImagePath, job.AudioPath, job.VideoPath, job.ErrorMessage, job.Version,
		job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("reel create: %w", err)
	}
	return nil
}

func (r *ReelRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ReelJob, error) {
	const q = `
		SELECT ` + reelColumns + `
		FROM reel_jobs
		WHERE id = $1
	`

	var job models.ReelJob
	if err := r.db.GetContext(ctx, &job, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("reel get by id: %w", err)
	}

	return &job, nil
}

func (r *ReelRepo) List(ctx context.Context, f models.ListFilter) ([]models.ReelJob, error) {
	q := `
		SELECT ` + reelColumns + `
		FROM reel_jobs
	`
	args := []any{}
	if f.Status != nil {
		q += ` WHERE status = $1`
		args = append(args, *f.Status)
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	jobs := []models.ReelJob{}
	if err := r.db.SelectContext(ctx, &jobs, q, args...); err != nil {
		return nil, fmt.Errorf("reel list: %w", err)
	}
	return jobs, nil
}

func (r *ReelRepo) Count(ctx context.Context, f models.ListFilter) (int, error) {
	q := `SELECT COUNT(*) FROM reel_jobs`
	args := []any{}
	if f.Status != nil {
		q += ` WHERE status = $1`
		args = append(args, *f.Status)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, q, args...); err != nil {
		return 0, fmt.Errorf("reel count: %w", err)
	}
	return n, nil
}

// updateQuery matches on (id, version) so a concurrent writer holding a
// stale version loses the race with ErrConflict instead of overwriting.
const updateQuery = `
	UPDATE reel_jobs
	SET status = $3, tone = $4, final_script = $5, script_approved = $6,
	    audio_path = $7, video_path = $8, error_message = $9,
	    version = version + 1, updated_at = NOW()
	WHERE id = $1 AND version = $2
	RETURNING ` + reelColumns

func (r *ReelRepo) Update(ctx context.Context, job *models.ReelJob) (*models.ReelJob, error) {
	var updated models.ReelJob
	err := r.db.GetContext(ctx, &updated, updateQuery,
		job.ID, job.Version,
		job.Status, job.Tone, job.FinalScript, job.ScriptApproved,
		job.AudioPath, job.VideoPath, job.ErrorMessage,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.conflictOrMissing(ctx, job.ID)
		}
		return nil, fmt.Errorf("reel update: %w", err)
	}
	return &updated, nil
}

func (r *ReelRepo) UpdateWithEvent(ctx context.Context, job *models.ReelJob, event models.DomainEvent) (*models.ReelJob, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var updated models.ReelJob
	err = tx.GetContext(ctx, &updated, updateQuery,
		job.ID, job.Version,
		job.Status, job.Tone, job.FinalScript, job.ScriptApproved,
		job.AudioPath, job.VideoPath, job.ErrorMessage,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.conflictOrMissing(ctx, job.ID)
		}
		return nil, fmt.Errorf("reel update tx: %w", err)
	}

	if event != nil {
		if err := r.outbox.Add(ctx, tx, event); err != nil {
			return nil, fmt.Errorf("add outbox: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &updated, nil
}

func (r *ReelRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM reel_jobs WHERE id = $1`

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("reel delete: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// conflictOrMissing disambiguates the zero-row update: the row is either
// gone or held at a different version.
func (r *ReelRepo) conflictOrMissing(ctx context.Context, id uuid.UUID) error {
	const q = `SELECT 1 FROM reel_jobs WHERE id = $1`
	var one int
	if err := r.db.GetContext(ctx, &one, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNotFound
		}
		return fmt.Errorf("reel conflict check: %w", err)
	}
	return models.ErrConflict
}
