package domain

import "strings"

// Status represents lifecycle states for a cross-post workflow record
type Status string

const (
	// StatusNotStarted indicates no workflow has ever begun for the key
	StatusNotStarted Status = "not_started"
	// StatusInProgress indicates a workflow currently owns the record
	StatusInProgress Status = "in_progress"
	// StatusSucceeded indicates every platform branch completed successfully
	StatusSucceeded Status = "succeeded"
	// StatusFailed indicates at least one branch failed or the workflow aborted
	StatusFailed Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// NormalizeStatus coerces arbitrary status strings into a known representation.
// Unknown or empty input maps to StatusNotStarted.
func NormalizeStatus(input string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(input))) {
	case StatusInProgress:
		return StatusInProgress
	case StatusSucceeded:
		return StatusSucceeded
	case StatusFailed:
		return StatusFailed
	default:
		return StatusNotStarted
	}
}
