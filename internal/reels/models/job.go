package models

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	PendingStatus         Status = "pending"
	PendingApprovalStatus Status = "script_pending_approval"
	ApprovedStatus        Status = "script_approved"
	ProcessingStatus      Status = "processing"
	DoneStatus            Status = "done"
	ErrorStatus           Status = "error"
)

func (s Status) Valid() bool {
	switch s {
	case PendingStatus, PendingApprovalStatus, ApprovedStatus, ProcessingStatus, DoneStatus, ErrorStatus:
		return true
	}
	return false
}

type Tone string

const (
	NeutralTone   Tone = "neutral"
	FriendlyTone  Tone = "friendly"
	FormalTone    Tone = "formal"
	EnergeticTone Tone = "energetic"
	DramaticTone  Tone = "dramatic"
)

func (t Tone) Valid() bool {
	switch t {
	case NeutralTone, FriendlyTone, FormalTone, EnergeticTone, DramaticTone:
		return true
	}
	return false
}

// ReelJob is the single persistent entity of the pipeline. One row per
// user-submitted reel; every orchestrator step mutates it in place.
// Version is an optimistic concurrency counter: updates match on it and
// bump it, so a concurrent writer loses with ErrConflict instead of
// silently overwriting the row.
type ReelJob struct {
	ID             uuid.UUID `db:"id"`
	Status         Status    `db:"status"`
	Tone           Tone      `db:"tone"`
	OriginalScript string    `db:"original_script"`
	FinalScript    *string   `db:"final_script"`
	ScriptApproved bool      `db:"script_approved"`
	ImagePath      string    `db:"image_path"`
	AudioPath      *string   `db:"audio_path"`
	VideoPath      *string   `db:"video_path"`
	ErrorMessage   *string   `db:"error_message"`
	Version        int64     `db:"version"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// ListFilter narrows List/Count queries. A nil Status means no filtering.
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}
