package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// DefaultSweepInterval is how often expired windows are removed in the background
const DefaultSweepInterval = time.Minute

// Result contains the outcome of a rate limit check
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Message   string
}

// RetryAfter returns how long to wait before the next request is allowed.
// Returns 0 if the current request was allowed.
func (r Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

type window struct {
	count   int
	resetAt time.Time
}

/* Limiter is a fixed-window counter keyed by client identifier
 * State is per-process: under horizontal scaling this gives best-effort,
 * per-instance limiting only, enough for abuse mitigation but not for
 * strict quota enforcement. A shared store would be needed for the latter
 */
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window

	maxRequests   int
	windowSize    time.Duration
	now           func() time.Time
	sweepInterval time.Duration

	stopSweep chan struct{}
	sweepOnce sync.Once
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock injects the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithSweepInterval overrides how often the background sweep runs
func WithSweepInterval(interval time.Duration) Option {
	return func(l *Limiter) {
		if interval > 0 {
			l.sweepInterval = interval
		}
	}
}

// NewLimiter creates a fixed-window limiter allowing maxRequests per windowSize.
// A background sweep bounds memory; lazy expiry-on-read keeps counts correct
// even without it. Call Close to stop the sweep goroutine.
func NewLimiter(maxRequests int, windowSize time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		windows:       make(map[string]*window),
		maxRequests:   maxRequests,
		windowSize:    windowSize,
		now:           time.Now,
		sweepInterval: DefaultSweepInterval,
		stopSweep:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	go l.sweepLoop()

	return l
}

// Check counts one request for the identifier and reports whether it is allowed
func (l *Limiter) Check(identifier string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.windows[identifier]

	// First request, or the previous window expired: start a fresh one
	if !exists || now.After(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(l.windowSize)}
		l.windows[identifier] = w
	} else {
		w.count++
	}

	remaining := l.maxRequests - w.count
	if remaining < 0 {
		remaining = 0
	}

	result := Result{
		Allowed:   w.count <= l.maxRequests,
		Remaining: remaining,
		ResetAt:   w.resetAt,
	}
	if !result.Allowed {
		result.Message = fmt.Sprintf("rate limit of %d requests per %s exceeded, retry after %s",
			l.maxRequests, l.windowSize, w.resetAt.Format(time.RFC3339))
	}
	return result
}

// Entries returns the number of live windows, used by the metrics collector
func (l *Limiter) Entries() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Close stops the background sweep goroutine
func (l *Limiter) Close() {
	l.sweepOnce.Do(func() {
		close(l.stopSweep)
	})
}

// sweepLoop periodically removes expired windows to bound memory.
// This is an optimization, not a correctness requirement: Check already
// replaces expired windows on access.
func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stopSweep:
			return
		}
	}
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, key)
		}
	}
}
