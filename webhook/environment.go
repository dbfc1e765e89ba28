package webhook

import (
	"fmt"
	"strings"
)

/* Environment represents the sender environment an event was signed for
 * Production and Sandbox carry independent secrets and rate limits
 */
type Environment int

const (
	Production Environment = iota + 1
	Sandbox
)

// String returns the string representation of the environment
func (e Environment) String() string {
	switch e {
	case Production:
		return "production"
	case Sandbox:
		return "sandbox"
	default:
		return "unknown"
	}
}

// NewEnvironment creates an Environment from a string.
// Matching is case-insensitive; header values in the wild vary in case.
func NewEnvironment(s string) Environment {
	switch strings.ToLower(s) {
	case "sandbox":
		return Sandbox
	case "production":
		return Production
	default:
		return Production // absent or unknown header means production
	}
}

// Validate checks if the environment is valid
func (e Environment) Validate() error {
	if e != Production && e != Sandbox {
		return fmt.Errorf("invalid environment: %d", e)
	}
	return nil
}
