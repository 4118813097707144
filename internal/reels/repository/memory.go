package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prasannasamana/ai-reel-generator/internal/reels/models"
)

// MemoryRepository keeps jobs in a map. Used by tests and local runs
// without Postgres.
type MemoryRepository struct {
	mu     sync.RWMutex
	data   map[uuid.UUID]*models.ReelJob
	events []models.DomainEvent
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		data: make(map[uuid.UUID]*models.ReelJob),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, job *models.ReelJob) error {
	if job == nil || job.ID == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[job.ID]; exists {
		return models.ErrConflict
	}

	// Defensive copy so the caller cannot mutate the stored row.
	cp := *job
	r.data[job.ID] = &cp

	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ReelJob, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.data[id]
	if !ok {
		return nil, models.ErrNotFound
	}

	cp := *job
	return &cp, nil
}

func (r *MemoryRepository) List(ctx context.Context, f models.ListFilter) ([]models.ReelJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	jobs := make([]models.ReelJob, 0, len(r.data))
	for _, job := range r.data {
		if f.Status != nil && job.Status != *f.Status {
			continue
		}
		jobs = append(jobs, *job)
	}
	r.mu.RUnlock()

	// Newest first, same ordering as the Postgres repository.
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	if f.Offset >= len(jobs) {
		return []models.ReelJob{}, nil
	}
	jobs = jobs[f.Offset:]
	if f.Limit > 0 && f.Limit < len(jobs) {
		jobs = jobs[:f.Limit]
	}
	return jobs, nil
}

func (r *MemoryRepository) Count(ctx context.Context, f models.ListFilter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, job := range r.data {
		if f.Status != nil && job.Status != *f.Status {
			continue
		}
		n++
	}
	return n, nil
}

func (r *MemoryRepository) Update(ctx context.Context, job *models.ReelJob) (*models.ReelJob, error) {
	return r.UpdateWithEvent(ctx, job, nil)
}

func (r *MemoryRepository) UpdateWithEvent(ctx context.Context, job *models.ReelJob, event models.DomainEvent) (*models.ReelJob, error) {
	if job == nil || job.ID == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.data[job.ID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if stored.Version != job.Version {
		return nil, models.ErrConflict
	}

	cp := *job
	cp.Version = job.Version + 1
	cp.UpdatedAt = time.Now()
	r.data[job.ID] = &cp

	if event != nil {
		r.events = append(r.events, event)
	}

	out := cp
	return &out, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// Events returns the domain events recorded by UpdateWithEvent, in order.
func (r *MemoryRepository) Events() []models.DomainEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.DomainEvent, len(r.events))
	copy(out, r.events)
	return out
}
