package riskrecords

import "errors"

var (
	// ErrNotFound indicates no record exists with the given ID.
	ErrNotFound = errors.New("risk record not found")

	// ErrInvalidTransition indicates a status change from a terminal status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidInput indicates a malformed request value.
	ErrInvalidInput = errors.New("invalid input")
)
