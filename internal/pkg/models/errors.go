package models

import "errors"

var (
	ErrInvalidTransition   = errors.New("invalid ride state transition")
	ErrAlreadyAccepted     = errors.New("ride already accepted")
	ErrNotAssignedDriver   = errors.New("driver is not assigned to this ride")
	ErrInvalidCode         = errors.New("invalid start code")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	ErrNotFound            = errors.New("not found")
	ErrNotParticipant      = errors.New("caller is not a participant of this ride")
	ErrInvalidRequest      = errors.New("invalid request")

	// ErrStatusConflict is returned by repositories when the compare-and-set on
	// (status, version) misses. It never leaves the rides usecase.
	ErrStatusConflict = errors.New("ride status changed concurrently")
)
