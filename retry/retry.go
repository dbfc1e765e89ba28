package retry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/marcelsud/webhook-guard/upstream"
)

// Config controls the retry loop around one operation
type Config struct {
	// Timeout bounds each individual attempt
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt
	MaxRetries int

	// Backoff computes the delay before each retry. Defaults to
	// ExponentialBackoff with a 1s base capped at 30s.
	Backoff BackoffStrategy

	// Retryable decides whether a failure is worth retrying.
	// Defaults to DefaultRetryable.
	Retryable func(error) bool

	// Op names the operation in timeout errors
	Op string
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Backoff == nil {
		c.Backoff = ExponentialBackoff{}
	}
	if c.Retryable == nil {
		c.Retryable = DefaultRetryable
	}
	return c
}

// Substrings of transport-level failures that arrive as plain errors
var retryableNetworkPhrases = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"i/o timeout",
	"unexpected eof",
}

// DefaultRetryable covers timeouts and common network failures, plus
// anything the upstream classifier marks retryable (429, 5xx)
func DefaultRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if upstream.IsRetryable(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range retryableNetworkPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// Do runs fn with a per-attempt timeout, retrying retryable failures up to
// cfg.MaxRetries times. fn is invoked fresh on every attempt. Non-retryable
// failures and exhausted retries both propagate the last error unchanged.
// Delays are context-aware: cancellation during a backoff sleep returns
// immediately with the context's error.
func Do(ctx context.Context, cfg Config, fn func(context.Context) error) error {
	cfg = cfg.withDefaults()

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, cfg.Backoff.NextInterval(attempt)); err != nil {
				return err
			}
		}

		lastErr = WithTimeout(ctx, cfg.Timeout, cfg.Op, fn)
		if lastErr == nil {
			return nil
		}
		if !cfg.Retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// sleep waits for d or until ctx is done, releasing the timer either way
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
