package values

import "fmt"

// Status represents the recorded outcome of a mediated operation.
//
// The audit capability records intent, not final outcome: its handlers run
// early in the chain and cannot know whether a later handler will deny the
// operation, so entries it appends carry StatusAllowed. Denied and Errored
// exist for consumers that record after the fact (e.g. the replayer).
type Status string

const (
	// StatusAllowed indicates the operation was permitted to proceed.
	StatusAllowed Status = "allowed"
	// StatusDenied indicates a handler vetoed the operation.
	StatusDenied Status = "denied"
	// StatusError indicates the operation aborted with an error.
	StatusError Status = "error"
)

// Precedence returns the numeric precedence of this status.
// Higher values indicate higher priority when aggregating.
//
// Precedence: Error (2) > Denied (1) > Allowed (0)
func (s Status) Precedence() int {
	switch s {
	case StatusError:
		return 2
	case StatusDenied:
		return 1
	case StatusAllowed:
		return 0
	default:
		return -1
	}
}

// IsFailure returns true if this status represents a denial or error.
func (s Status) IsFailure() bool {
	return s == StatusDenied || s == StatusError
}

// Validate returns an error if the status value is invalid.
func (s Status) Validate() error {
	switch s {
	case StatusAllowed, StatusDenied, StatusError:
		return nil
	default:
		return fmt.Errorf("invalid status: %s", s)
	}
}
