package services

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	// ErrProvider wraps failures of an external AI provider after retries.
	ErrProvider = errors.New("provider request failed")
)
