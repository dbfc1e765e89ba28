package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/webhook-guard/webhook"
)

// Reasons identify which replay check rejected a delivery.
// Tests and callers can distinguish failures without parsing messages.
const (
	ReasonDuplicate   = "duplicate_event"
	ReasonTooOld      = "event_too_old"
	ReasonInFuture    = "event_in_future"
	ReasonCheckFailed = "replay_check_failed"
)

// MaxClockSkew is how far in the future an event timestamp may claim to be
const MaxClockSkew = 60 * time.Second

// DefaultMaxEventAge is the default window inside which events are accepted
const DefaultMaxEventAge = time.Hour

// Result carries the outcome of replay validation
type Result struct {
	Valid  bool
	Reason string
	Err    error
}

/* Guard rejects webhook deliveries that were already processed or whose
 * timestamp falls outside the acceptance window
 * The duplicate check is delegated to a persisted collaborator so replay
 * protection survives restarts
 */
type Guard struct {
	checker     webhook.DuplicateChecker
	maxEventAge time.Duration
	now         func() time.Time
}

// Option configures a Guard
type Option func(*Guard)

// WithMaxEventAge overrides the maximum accepted event age
func WithMaxEventAge(age time.Duration) Option {
	return func(g *Guard) {
		if age > 0 {
			g.maxEventAge = age
		}
	}
}

// WithClock injects the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGuard creates a replay guard backed by the given duplicate checker
func NewGuard(checker webhook.DuplicateChecker, opts ...Option) *Guard {
	g := &Guard{
		checker:     checker,
		maxEventAge: DefaultMaxEventAge,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Validate runs the three replay checks in order, short-circuiting on the
// first failure. Each failure carries a distinguishable reason and message.
func (g *Guard) Validate(ctx context.Context, eventID string, createdAt time.Time) Result {
	seen, err := g.checker.Seen(ctx, eventID)
	if err != nil {
		// An infrastructure failure, not evidence of a replay: the sender
		// should retry the delivery
		return Result{
			Valid:  false,
			Reason: ReasonCheckFailed,
			Err:    fmt.Errorf("checking for duplicate event: %w", err),
		}
	}
	if seen {
		return Result{
			Valid:  false,
			Reason: ReasonDuplicate,
			Err:    fmt.Errorf("event %s was already processed", eventID),
		}
	}

	now := g.now()
	if age := now.Sub(createdAt); age > g.maxEventAge {
		return Result{
			Valid:  false,
			Reason: ReasonTooOld,
			Err:    fmt.Errorf("event %s is too old: created %s ago, max age %s", eventID, age, g.maxEventAge),
		}
	}

	if createdAt.After(now.Add(MaxClockSkew)) {
		return Result{
			Valid:  false,
			Reason: ReasonInFuture,
			Err:    fmt.Errorf("event %s claims a timestamp more than %s in the future", eventID, MaxClockSkew),
		}
	}

	return Result{Valid: true}
}
