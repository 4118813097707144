package models

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict") // optimistic lock / version mismatch
	ErrInvalidArgument = errors.New("invalid arguments")
	ErrPrecondition    = errors.New("precondition failed")
	ErrBusy            = errors.New("dispatcher queue full")

	// Stage failures. Each wraps the collaborator-side cause and is
	// persisted onto the job before it is returned to the caller.
	ErrRewriteFailed = errors.New("script rewrite failed")
	ErrAudioFailed   = errors.New("audio generation failed")
	ErrVideoFailed   = errors.New("video generation failed")
)
