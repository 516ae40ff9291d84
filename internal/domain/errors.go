package domain

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	// ErrUpstream marks a transport failure or non-success status from the analyzer.
	ErrUpstream = errors.New("upstream service error")
	// ErrContractViolation marks an analyzer reply that is not the expected JSON shape.
	// It is recovered inside the analyzer client and never reaches callers.
	ErrContractViolation = errors.New("upstream contract violation")
	ErrAnalysis          = errors.New("analysis failed")
)
