package models

import "errors"

var (
	// ErrNotFound is returned for an unknown campaign or status message
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when an operation targets a closed campaign
	ErrInvalidState = errors.New("invalid state")
	// ErrConflict is returned when a guild member already has an open campaign
	ErrConflict = errors.New("conflict")
	// ErrValidation is returned for empty content or an unknown sentiment
	ErrValidation = errors.New("validation error")
	// ErrRankAssignment is returned when a campaign was accepted but the rank could not be granted
	ErrRankAssignment = errors.New("rank assignment failed")
)
