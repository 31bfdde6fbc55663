package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrLeadConverted is returned when a mutation targets a lead that has
	// already been converted to a contact
	ErrLeadConverted = errors.New("lead is already converted")

	// ErrStageBlocked is returned when the transition guard rejects a
	// stage move under block enforcement
	ErrStageBlocked = errors.New("stage transition blocked")

	// ErrInvalidStage is returned when an unknown pipeline stage is supplied
	ErrInvalidStage = errors.New("invalid pipeline stage")
)
