package webhook

import "fmt"

/* Status represents the current state of a webhook receipt
 * Follows the lifecycle: Received -> Processed/Rejected
 */
type Status int

const (
	Received Status = iota + 1
	Processed
	Rejected
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case Received:
		return "received"
	case Processed:
		return "processed"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// NewStatus creates a Status from a string
func NewStatus(str string) Status {
	switch str {
	case "received":
		return Received
	case "processed":
		return Processed
	case "rejected":
		return Rejected
	default:
		return Received
	}
}

// Validate checks if the status is valid
func (s Status) Validate() error {
	if s < Received || s > Rejected {
		return fmt.Errorf("invalid status: %d", s)
	}
	return nil
}

// IsFinal returns true if the status is a terminal state
func (s Status) IsFinal() bool {
	return s == Processed || s == Rejected
}
