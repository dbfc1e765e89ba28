package breaker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/marcelsud/webhook-guard/upstream"
)

// State represents the current state of the circuit breaker
type State int

const (
	// Closed allows calls to pass through
	Closed State = iota
	// Open rejects calls without attempting them
	Open
	// HalfOpen admits a limited number of probe calls
	HalfOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// OpenError is returned when a call is rejected without being attempted
type OpenError struct {
	Name       string
	RetryAfter time.Duration
}

// Error implements the error interface
func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker %s is open, retry after %s", e.Name, e.RetryAfter)
}

// Config holds the circuit breaker thresholds
type Config struct {
	// FailureThreshold is the number of consecutive countable failures
	// that opens the circuit
	FailureThreshold int

	// ResetTimeout is how long the circuit stays open before probing
	ResetTimeout time.Duration

	// HalfOpenRequests is both the number of probe calls admitted while
	// half-open and the number of successes required to close
	HalfOpenRequests int

	// IsFailure decides whether an error counts against the dependency.
	// The default excludes validation and bad-request style errors, which
	// indicate a broken caller rather than a broken dependency.
	IsFailure func(error) bool
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.HalfOpenRequests <= 0 {
		c.HalfOpenRequests = 2
	}
	if c.IsFailure == nil {
		c.IsFailure = DefaultIsFailure
	}
	return c
}

// DefaultIsFailure counts everything except bad-request style errors.
// A malformed request says nothing about the health of the dependency.
// Only errors already typed as bad requests are excluded; untyped errors
// (network failures, unknown SDK errors) always count.
func DefaultIsFailure(err error) bool {
	if err == nil {
		return false
	}
	var typed *upstream.Error
	if errors.As(err, &typed) && typed.Code == upstream.CodeBadRequest {
		return false
	}
	return !strings.Contains(strings.ToLower(err.Error()), "validation")
}

/* Breaker guards calls to one external dependency
 * Per-instance, not distributed: each process tracks its own view of the
 * dependency. A multi-instance deployment needing a shared view would move
 * this state to an external store
 */
type Breaker struct {
	mu   sync.Mutex
	name string
	cfg  Config
	now  func() time.Time

	state               State
	failures            int64 // lifetime counters
	successes           int64
	consecutiveFailures int
	lastFailureTime     time.Time
	lastSuccessTime     time.Time
	halfOpenAdmitted    int // probe calls admitted this half-open cycle
	halfOpenAttempts    int // successful probes this half-open cycle
}

// Option configures a Breaker
type Option func(*Breaker)

// WithClock injects the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a circuit breaker for the named dependency
func New(name string, cfg Config, opts ...Option) *Breaker {
	b := &Breaker{
		name:  name,
		cfg:   cfg.withDefaults(),
		now:   time.Now,
		state: Closed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Execute runs fn through the breaker. When the circuit is open the call is
// rejected with *OpenError before fn is invoked; when a call is attempted
// its original error is returned unchanged so callers keep the original
// failure semantics.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := fn(ctx)
	switch {
	case err == nil:
		b.onSuccess()
	case b.cfg.IsFailure(err):
		b.onFailure()
	default:
		b.onNeutral()
	}
	return err
}

// admit decides whether a call may proceed, applying the lazy
// open-to-half-open transition once the reset timeout has elapsed
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return nil

	case Open:
		elapsed := b.now().Sub(b.lastFailureTime)
		if elapsed < b.cfg.ResetTimeout {
			return &OpenError{Name: b.name, RetryAfter: b.cfg.ResetTimeout - elapsed}
		}
		b.transition(HalfOpen)
		b.halfOpenAdmitted = 1
		return nil

	case HalfOpen:
		if b.halfOpenAdmitted >= b.cfg.HalfOpenRequests {
			return &OpenError{Name: b.name, RetryAfter: b.cfg.ResetTimeout}
		}
		b.halfOpenAdmitted++
		return nil

	default:
		return &OpenError{Name: b.name, RetryAfter: b.cfg.ResetTimeout}
	}
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes++
	b.consecutiveFailures = 0
	b.lastSuccessTime = b.now()

	if b.state == HalfOpen {
		b.halfOpenAttempts++
		if b.halfOpenAttempts >= b.cfg.HalfOpenRequests {
			b.transition(Closed)
		}
	}
}

func (b *Breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailureTime = b.now()

	switch b.state {
	case Closed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			b.transition(Open)
		}

	case HalfOpen:
		// One failed probe is enough, no averaging
		b.consecutiveFailures++
		b.transition(Open)
	}
}

// onNeutral handles non-countable failures: they say nothing about the
// dependency's health, so a half-open probe slot they consumed is released.
// Otherwise a run of neutral outcomes would pin the breaker half-open with
// no transition ever resolving it.
func (b *Breaker) onNeutral() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == HalfOpen && b.halfOpenAdmitted > 0 {
		b.halfOpenAdmitted--
	}
}

// transition moves to a new state, resetting the per-cycle counters.
// Callers must hold b.mu.
func (b *Breaker) transition(to State) {
	b.state = to
	b.halfOpenAdmitted = 0
	b.halfOpenAttempts = 0
	if to == Closed {
		b.consecutiveFailures = 0
	}
}

// Name returns the name of the guarded dependency
func (b *Breaker) Name() string {
	return b.name
}

// State returns the state an admitted call would observe, accounting for
// the lazy open-to-half-open transition
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open && b.now().Sub(b.lastFailureTime) >= b.cfg.ResetTimeout {
		return HalfOpen
	}
	return b.state
}

// Stats provides visibility into breaker state for monitoring
type Stats struct {
	Name                string    `json:"name"`
	State               string    `json:"state"`
	Failures            int64     `json:"failures"`
	Successes           int64     `json:"successes"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastFailureTime     time.Time `json:"last_failure_time"`
	LastSuccessTime     time.Time `json:"last_success_time"`
	HalfOpenAttempts    int       `json:"half_open_attempts"`
}

// Stats returns a snapshot of the breaker's counters
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Stats{
		Name:                b.name,
		State:               b.state.String(),
		Failures:            b.failures,
		Successes:           b.successes,
		ConsecutiveFailures: b.consecutiveFailures,
		LastFailureTime:     b.lastFailureTime,
		LastSuccessTime:     b.lastSuccessTime,
		HalfOpenAttempts:    b.halfOpenAttempts,
	}
}
