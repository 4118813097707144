package domain

import (
	"fmt"

	"github.com/prasannasamana/ai-reel-generator/internal/reels/models"
)

// CanTransition encodes the pipeline state machine:
//
//	pending -> script_pending_approval | script_approved | error
//	script_pending_approval -> script_pending_approval | script_approved | error
//	script_approved -> script_pending_approval | processing | error
//	processing -> done | error
//	error -> processing | script_pending_approval | script_approved (retry)
//	done is terminal
//
// error is re-enterable: retrying an individual step moves the job back
// through processing (or a pre-approval status) and may reach done.
func CanTransition(from, to models.Status) bool {
	switch from {
	case models.PendingStatus:
		return to == models.PendingApprovalStatus || to == models.ApprovedStatus || to == models.ErrorStatus
	case models.PendingApprovalStatus:
		return to == models.PendingApprovalStatus || to == models.ApprovedStatus || to == models.ErrorStatus
	case models.ApprovedStatus:
		// Rewriting an approved script puts it back up for approval.
		return to == models.PendingApprovalStatus || to == models.ProcessingStatus || to == models.ErrorStatus
	case models.ProcessingStatus:
		return to == models.DoneStatus || to == models.ErrorStatus
	case models.ErrorStatus:
		return to == models.ProcessingStatus || to == models.PendingApprovalStatus || to == models.ApprovedStatus
	case models.DoneStatus:
		return false
	default:
		return false
	}
}

func ValidateTransition(from, to models.Status) error {
	if from == to {
		return nil
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: invalid transition %s -> %s", models.ErrPrecondition, from, to)
	}
	return nil
}

// Locked reports whether the script fields are frozen. Once a job has
// entered video generation its final_script and tone are no longer
// rewritable.
func Locked(status models.Status) bool {
	return status == models.ProcessingStatus || status == models.DoneStatus
}
