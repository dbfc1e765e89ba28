package retry

import (
	"math"
	"math/rand"
	"time"
)

// MaxJitter is the upper bound of the uniform jitter added to every delay
// to avoid synchronized retry storms across concurrent callers
const MaxJitter = 500 * time.Millisecond

// BackoffStrategy defines the interface for calculating retry delays.
// Implementations should be safe for concurrent use.
type BackoffStrategy interface {
	// NextInterval returns the delay before the given attempt.
	// Attempt starts at 1 for the first retry.
	NextInterval(attempt int) time.Duration
}

// ExponentialBackoff doubles the base delay per attempt, caps it at
// MaxInterval, and adds uniform jitter in [0, MaxJitter).
type ExponentialBackoff struct {
	BaseInterval time.Duration
	MaxInterval  time.Duration
}

// NextInterval computes min(base * 2^(attempt-1), max) + jitter
func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	base := e.BaseInterval
	if base == 0 {
		base = time.Second
	}
	max := e.MaxInterval
	if max == 0 {
		max = 30 * time.Second
	}

	interval := float64(base) * math.Pow(2, float64(attempt-1))
	if interval > float64(max) {
		interval = float64(max)
	}

	jitter := time.Duration(rand.Int63n(int64(MaxJitter)))
	return time.Duration(interval) + jitter
}

// FixedBackoff waits the same delay before every retry
type FixedBackoff struct {
	Interval time.Duration
}

// NextInterval always returns the configured interval
func (f FixedBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}
