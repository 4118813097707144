package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prasannasamana/ai-reel-generator/internal/metrics"
	"github.com/prasannasamana/ai-reel-generator/internal/reels/domain"
	"github.com/prasannasamana/ai-reel-generator/internal/reels/models"
	"github.com/prasannasamana/ai-reel-generator/internal/reels/repository"
)

const (
	maxScriptLen = 10000
	maxSeconds   = 300

	// Shared with the HTTP layer so pagination links use the same
	// effective page size the query did.
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Collaborator contracts. Implementations live in internal/reels/openai
// and internal/reels/runpod; tests mock them.
type Rewriter interface {
	Rewrite(ctx context.Context, script string, tone models.Tone, maxSeconds int) (string, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, script string) ([]byte, error)
}

type VideoSynthesizer interface {
	Synthesize(ctx context.Context, image, audio []byte) ([]byte, error)
}

type ArtifactStore interface {
	SaveImage(id uuid.UUID, name string, data []byte) (string, error)
	SaveAudio(id uuid.UUID, data []byte) (string, error)
	SaveVideo(id uuid.UUID, data []byte) (string, error)
	Read(rel string) ([]byte, error)
	RemoveJob(id uuid.UUID) error
}

// Service is the pipeline orchestrator. It owns the ReelJob invariants
// and drives each job through rewrite -> approval -> audio -> video,
// persisting after every step.
type Service struct {
	repo       repository.ReelRepository
	media      ArtifactStore
	rewriter   Rewriter
	speech     SpeechSynthesizer
	video      VideoSynthesizer
	dispatcher *Dispatcher
	log        zerolog.Logger
	clock      func() time.Time
	idGen      func() uuid.UUID
}

type Deps struct {
	Repo       repository.ReelRepository
	Media      ArtifactStore
	Rewriter   Rewriter
	Speech     SpeechSynthesizer
	Video      VideoSynthesizer
	Dispatcher *Dispatcher
	Logger     zerolog.Logger
}

func New(d Deps) *Service {
	return &Service{
		repo:       d.Repo,
		media:      d.Media,
		rewriter:   d.Rewriter,
		speech:     d.Speech,
		video:      d.Video,
		dispatcher: d.Dispatcher,
		log:        d.Logger.With().Str("component", "reel_service").Logger(),
		clock:      time.Now,
		idGen:      uuid.New,
	}
}

type CreateParams struct {
	ImageName  string
	Image      []byte
	Script     string
	Tone       models.Tone
	UseRewrite bool
	MaxSeconds int // 0 means no duration hint
}

// CreateJob validates input, stores the face image and inserts the job,
// then runs the first pipeline stage: a rewrite when requested, otherwise
// auto-approval of the original script followed by a best-effort audio
// attempt. A stage failure after the insert leaves the persisted job in
// status error and is returned alongside it.
func (s *Service) CreateJob(ctx context.Context, p CreateParams) (*models.ReelJob, error) {
	if len(p.Image) == 0 {
		return nil, fmt.Errorf("%w: image is required", models.ErrInvalidArgument)
	}
	if p.Script == "" {
		return nil, fmt.Errorf("%w: script is required", models.ErrInvalidArgument)
	}
	if len(p.Script) > maxScriptLen {
		return nil, fmt.Errorf("%w: script exceeds %d characters", models.ErrInvalidArgument, maxScriptLen)
	}
	tone := p.Tone
	if tone == "" {
		tone = models.NeutralTone
	}
	if !tone.Valid() {
		return nil, fmt.Errorf("%w: unknown tone %q", models.ErrInvalidArgument, p.Tone)
	}
	if p.MaxSeconds < 0 || p.MaxSeconds > maxSeconds {
		return nil, fmt.Errorf("%w: max_seconds must be between 1 and %d", models.ErrInvalidArgument, maxSeconds)
	}

	id := s.idGen()
	imagePath, err := s.media.SaveImage(id, p.ImageName, p.Image)
	if err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	now := s.clock()
	job := &models.ReelJob{
		ID:             id,
		Status:         models.PendingStatus,
		Tone:           tone,
		OriginalScript: p.Script,
		ImagePath:      imagePath,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}
	metrics.JobsCreated.Inc()
	s.log.Info().Stringer("job_id", job.ID).Str("tone", string(tone)).Bool("use_rewrite", p.UseRewrite).Msg("job created")

	if p.UseRewrite {
		return s.rewrite(ctx, job, p.MaxSeconds)
	}

	// Auto-approve: the original script goes straight to the approved
	// state, and audio generation is attempted on a best-effort basis.
	final := job.OriginalScript
	job.FinalScript = &final
	job.ScriptApproved = true
	job.Status = models.ApprovedStatus
	job.ErrorMessage = nil

	job, err = s.saveStatus(ctx, job, models.PendingStatus)
	if err != nil {
		return nil, err
	}

	return s.tryInlineAudio(ctx, job), nil
}

func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*models.ReelJob, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	return s.repo.GetByID(ctx, id)
}

// ListJobs returns a page of jobs, newest first, and the total count for
// the filter.
func (s *Service) ListJobs(ctx context.Context, status *models.Status, page, pageSize int) ([]models.ReelJob, int, error) {
	if status != nil && !status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", models.ErrInvalidArgument, *status)
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	f := models.ListFilter{Status: status, Limit: pageSize, Offset: (page - 1) * pageSize}
	jobs, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// DeleteJob removes the row and the artifact directory. Deletion is
// terminal; there is no soft delete.
func (s *Service) DeleteJob(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.media.RemoveJob(id); err != nil {
		// Row is gone; orphaned files are only worth a warning.
		s.log.Warn().Err(err).Stringer("job_id", id).Msg("failed to remove job artifacts")
	}
	return nil
}

// RewriteScript re-runs the tone rewrite. An optional tone override
// retargets the job before the call; maxSeconds <= 0 means no duration
// hint. Rejected once the job is past approval (processing/done).
func (s *Service) RewriteScript(ctx context.Context, id uuid.UUID, tone *models.Tone, maxSecs int) (*models.ReelJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if domain.Locked(job.Status) {
		return nil, fmt.Errorf("%w: script is locked once video generation has started", models.ErrPrecondition)
	}
	if maxSecs < 0 || maxSecs > maxSeconds {
		return nil, fmt.Errorf("%w: max_seconds must be between 1 and %d", models.ErrInvalidArgument, maxSeconds)
	}
	if tone != nil {
		if !tone.Valid() {
			return nil, fmt.Errorf("%w: unknown tone %q", models.ErrInvalidArgument, *tone)
		}
		job.Tone = *tone
	}
	return s.rewrite(ctx, job, maxSecs)
}

// RegenerateScript discards the current draft and produces a new one.
// Approval is reset even if it had been granted.
func (s *Service) RegenerateScript(ctx context.Context, id uuid.UUID, tone *models.Tone, maxSecs int) (*models.ReelJob, error) {
	return s.RewriteScript(ctx, id, tone, maxSecs)
}

// rewrite calls the collaborator and persists the outcome. On success the
// draft replaces final_script, approval is reset and the job moves to
// script_pending_approval. On failure the job is parked in error with the
// previous final_script untouched.
func (s *Service) rewrite(ctx context.Context, job *models.ReelJob, maxSecs int) (*models.ReelJob, error) {
	from := job.Status

	text, err := s.rewriter.Rewrite(ctx, job.OriginalScript, job.Tone, maxSecs)
	if err != nil {
		metrics.StageTotal.WithLabelValues(metrics.StageRewrite, metrics.OutcomeError).Inc()
		return s.failJob(ctx, job, err)
	}
	metrics.StageTotal.WithLabelValues(metrics.StageRewrite, metrics.OutcomeOK).Inc()

	job.FinalScript = &text
	job.ScriptApproved = false
	job.Status = models.PendingApprovalStatus
	job.ErrorMessage = nil

	return s.saveStatus(ctx, job, from)
}

// ApproveScript freezes the draft as input to the audio/video stages.
// Synchronous approval makes the tolerated inline audio attempt before
// returning; async approval dispatches the full audio+video run to the
// background and returns a completion channel for it.
func (s *Service) ApproveScript(ctx context.Context, id uuid.UUID, async bool) (*models.ReelJob, <-chan error, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if job.FinalScript == nil || *job.FinalScript == "" {
		return nil, nil, fmt.Errorf("%w: no final script to approve", models.ErrPrecondition)
	}
	from := job.Status
	if err := domain.ValidateTransition(from, models.ApprovedStatus); err != nil {
		return nil, nil, err
	}

	job.ScriptApproved = true
	job.Status = models.ApprovedStatus
	job.ErrorMessage = nil

	job, err = s.saveStatus(ctx, job, from)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info().Stringer("job_id", job.ID).Bool("async", async).Msg("script approved")

	if !async {
		return s.tryInlineAudio(ctx, job), nil, nil
	}

	done, ok := s.dispatcher.Dispatch("video:"+id.String(), func() error {
		_, err := s.runVideo(context.Background(), id)
		return err
	})
	if !ok {
		return job, nil, models.ErrBusy
	}
	return job, done, nil
}

// saveStatus persists the job, emitting a status-changed event in the
// same transaction when the status actually moved. Every move is checked
// against the transition table so no caller can emit an event the state
// machine does not allow.
func (s *Service) saveStatus(ctx context.Context, job *models.ReelJob, from models.Status) (*models.ReelJob, error) {
	if job.Status != from {
		if err := domain.ValidateTransition(from, job.Status); err != nil {
			return nil, err
		}
		return s.repo.UpdateWithEvent(ctx, job, models.NewReelStatusChanged(job.ID, from, job.Status))
	}
	return s.repo.Update(ctx, job)
}

// failJob parks the job in error with the cause recorded, then returns
// the cause so synchronous callers still see the stage failure.
func (s *Service) failJob(ctx context.Context, job *models.ReelJob, cause error) (*models.ReelJob, error) {
	from := job.Status
	msg := cause.Error()
	job.Status = models.ErrorStatus
	job.ErrorMessage = &msg

	updated, err := s.saveStatus(ctx, job, from)
	if err != nil {
		s.log.Error().Err(err).Stringer("job_id", job.ID).Msg("failed to persist error state")
		return job, cause
	}
	s.log.Warn().Stringer("job_id", job.ID).Str("error", msg).Msg("pipeline stage failed")
	return updated, cause
}
