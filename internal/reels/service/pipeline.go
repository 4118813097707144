package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/prasannasamana/ai-reel-generator/internal/metrics"
	"github.com/prasannasamana/ai-reel-generator/internal/reels/domain"
	"github.com/prasannasamana/ai-reel-generator/internal/reels/models"
)

// GenerateAudio synthesizes speech for the approved script. Idempotent:
// when audio already exists no synthesis call is made. A failure is
// recorded on the job (error_message) but the status is left alone; audio
// alone never parks a job in error.
func (s *Service) GenerateAudio(ctx context.Context, id uuid.UUID) (*models.ReelJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !job.ScriptApproved || job.FinalScript == nil {
		return nil, fmt.Errorf("%w: script must be approved before generating audio", models.ErrPrecondition)
	}
	if job.AudioPath != nil {
		return job, nil
	}

	audio, synthErr := s.speech.Synthesize(ctx, *job.FinalScript)
	var rel string
	if synthErr == nil {
		rel, synthErr = s.saveAudioArtifact(job.ID, audio)
	}
	if synthErr != nil {
		metrics.StageTotal.WithLabelValues(metrics.StageAudio, metrics.OutcomeError).Inc()
		msg := synthErr.Error()
		job.ErrorMessage = &msg
		if updated, uerr := s.repo.Update(ctx, job); uerr == nil {
			job = updated
		} else {
			s.log.Error().Err(uerr).Stringer("job_id", job.ID).Msg("failed to record audio failure")
		}
		return job, synthErr
	}
	metrics.StageTotal.WithLabelValues(metrics.StageAudio, metrics.OutcomeOK).Inc()

	job.AudioPath = &rel
	job.ErrorMessage = nil
	return s.repo.Update(ctx, job)
}

// tryInlineAudio is the tolerated best-effort audio attempt made by
// auto-approve and synchronous approve. A failure is logged and recorded
// on the job, never returned: the caller's own step still succeeds.
func (s *Service) tryInlineAudio(ctx context.Context, job *models.ReelJob) *models.ReelJob {
	if job.AudioPath != nil || job.FinalScript == nil {
		return job
	}

	audio, err := s.speech.Synthesize(ctx, *job.FinalScript)
	var rel string
	if err == nil {
		rel, err = s.saveAudioArtifact(job.ID, audio)
	}
	if err != nil {
		metrics.StageTotal.WithLabelValues(metrics.StageAudio, metrics.OutcomeError).Inc()
		s.log.Warn().Err(err).Stringer("job_id", job.ID).Msg("inline audio generation failed, continuing without audio")
		msg := err.Error()
		job.ErrorMessage = &msg
		if updated, uerr := s.repo.Update(ctx, job); uerr == nil {
			return updated
		}
		return job
	}
	metrics.StageTotal.WithLabelValues(metrics.StageAudio, metrics.OutcomeOK).Inc()

	job.AudioPath = &rel
	job.ErrorMessage = nil
	if updated, uerr := s.repo.Update(ctx, job); uerr == nil {
		return updated
	}
	return job
}

func (s *Service) saveAudioArtifact(id uuid.UUID, audio []byte) (string, error) {
	rel, err := s.media.SaveAudio(id, audio)
	if err != nil {
		return "", fmt.Errorf("%w: save artifact: %v", models.ErrAudioFailed, err)
	}
	return rel, nil
}

// GenerateVideo runs the strict, fail-fast stage: processing -> done, or
// processing -> error with the cause persisted and returned. Audio is
// generated inline when missing, and a failure there is fatal to this
// run since the GPU worker cannot proceed without it. The async flavor
// dispatches the run to the bounded executor and returns immediately.
func (s *Service) GenerateVideo(ctx context.Context, id uuid.UUID, async bool) (*models.ReelJob, <-chan error, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !job.ScriptApproved || job.FinalScript == nil {
		return nil, nil, fmt.Errorf("%w: script must be approved before generating video", models.ErrPrecondition)
	}
	if err := domain.ValidateTransition(job.Status, models.ProcessingStatus); err != nil {
		return nil, nil, err
	}

	if async {
		done, ok := s.dispatcher.Dispatch("video:"+id.String(), func() error {
			_, err := s.runVideo(context.Background(), id)
			return err
		})
		if !ok {
			return nil, nil, models.ErrBusy
		}
		return job, done, nil
	}

	job, err = s.runVideo(ctx, id)
	return job, nil, err
}

func (s *Service) runVideo(ctx context.Context, id uuid.UUID) (*models.ReelJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !job.ScriptApproved || job.FinalScript == nil {
		return nil, fmt.Errorf("%w: script must be approved before generating video", models.ErrPrecondition)
	}

	from := job.Status
	if err := domain.ValidateTransition(from, models.ProcessingStatus); err != nil {
		return job, err
	}
	job.Status = models.ProcessingStatus
	job, err = s.saveStatus(ctx, job, from)
	if err != nil {
		return nil, err
	}

	if job.AudioPath == nil {
		audio, synthErr := s.speech.Synthesize(ctx, *job.FinalScript)
		var rel string
		if synthErr == nil {
			rel, synthErr = s.saveAudioArtifact(job.ID, audio)
		}
		if synthErr != nil {
			metrics.StageTotal.WithLabelValues(metrics.StageAudio, metrics.OutcomeError).Inc()
			return s.failJob(ctx, job, synthErr)
		}
		metrics.StageTotal.WithLabelValues(metrics.StageAudio, metrics.OutcomeOK).Inc()

		job.AudioPath = &rel
		job, err = s.repo.Update(ctx, job)
		if err != nil {
			return nil, err
		}
	}

	image, err := s.media.Read(job.ImagePath)
	if err != nil {
		return s.failJob(ctx, job, fmt.Errorf("%w: read image: %v", models.ErrVideoFailed, err))
	}
	audio, err := s.media.Read(*job.AudioPath)
	if err != nil {
		return s.failJob(ctx, job, fmt.Errorf("%w: read audio: %v", models.ErrVideoFailed, err))
	}

	video, err := s.video.Synthesize(ctx, image, audio)
	if err != nil {
		metrics.StageTotal.WithLabelValues(metrics.StageVideo, metrics.OutcomeError).Inc()
		return s.failJob(ctx, job, err)
	}

	rel, err := s.media.SaveVideo(job.ID, video)
	if err != nil {
		metrics.StageTotal.WithLabelValues(metrics.StageVideo, metrics.OutcomeError).Inc()
		return s.failJob(ctx, job, fmt.Errorf("%w: save artifact: %v", models.ErrVideoFailed, err))
	}
	metrics.StageTotal.WithLabelValues(metrics.StageVideo, metrics.OutcomeOK).Inc()

	job.VideoPath = &rel
	job.Status = models.DoneStatus
	job.ErrorMessage = nil

	job, err = s.saveStatus(ctx, job, models.ProcessingStatus)
	if err != nil {
		return nil, err
	}
	s.log.Info().Stringer("job_id", job.ID).Msg("video generated")
	return job, nil
}
