package riskrecords

import "fmt"

// Status is the review state of a risk record.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusCleared  Status = "Cleared"
	StatusReferred Status = "Referred"
)

// ParseStatus validates a raw status string. Matching is exact; unknown or
// differently-cased values are rejected.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusCleared, StatusReferred:
		return Status(raw), nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, raw)
}

// Terminal reports whether the status admits no further change.
func (s Status) Terminal() bool {
	return s == StatusCleared || s == StatusReferred
}

// CanTransition reports whether from may move to to. Pending may move
// anywhere; a terminal status only repeats itself.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	return from == StatusPending
}
