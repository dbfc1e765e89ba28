package ratelimit_test

import (
	"testing"
	"time"

	"github.com/marcelsud/webhook-guard/ratelimit"
	"github.com/marcelsud/webhook-guard/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	t.Run("allows up to the threshold and rejects the next call", func(t *testing.T) {
		l := ratelimit.NewLimiter(3, time.Minute)
		defer l.Close()

		for i := 0; i < 3; i++ {
			result := l.Check("10.0.0.1")
			require.True(t, result.Allowed, "call %d should be allowed", i+1)
		}

		result := l.Check("10.0.0.1")
		assert.False(t, result.Allowed)
		assert.Equal(t, 0, result.Remaining)
		assert.Contains(t, result.Message, "rate limit")
	})

	t.Run("remaining counts down", func(t *testing.T) {
		l := ratelimit.NewLimiter(3, time.Minute)
		defer l.Close()

		assert.Equal(t, 2, l.Check("ip").Remaining)
		assert.Equal(t, 1, l.Check("ip").Remaining)
		assert.Equal(t, 0, l.Check("ip").Remaining)
	})

	t.Run("fresh window after reset time elapses", func(t *testing.T) {
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		l := ratelimit.NewLimiter(1, time.Minute, ratelimit.WithClock(func() time.Time { return clock() }))
		defer l.Close()

		require.True(t, l.Check("ip").Allowed)
		require.False(t, l.Check("ip").Allowed)

		// Just past the window boundary
		now = now.Add(time.Minute + time.Second)

		result := l.Check("ip")
		assert.True(t, result.Allowed)
		assert.Equal(t, 0, result.Remaining)
		assert.Equal(t, now.Add(time.Minute), result.ResetAt)
	})

	t.Run("identifiers are independent", func(t *testing.T) {
		l := ratelimit.NewLimiter(1, time.Minute)
		defer l.Close()

		require.True(t, l.Check("10.0.0.1").Allowed)
		require.False(t, l.Check("10.0.0.1").Allowed)
		assert.True(t, l.Check("10.0.0.2").Allowed)
	})

	t.Run("retry after is positive only when rejected", func(t *testing.T) {
		l := ratelimit.NewLimiter(1, time.Minute)
		defer l.Close()

		assert.Equal(t, time.Duration(0), l.Check("ip").RetryAfter())
		assert.Greater(t, l.Check("ip").RetryAfter(), time.Duration(0))
	})
}

func TestEnvironmentLimiter(t *testing.T) {
	t.Run("environments have independent windows and thresholds", func(t *testing.T) {
		production := ratelimit.NewLimiter(1, time.Minute)
		sandbox := ratelimit.NewLimiter(2, time.Minute)
		e := ratelimit.NewEnvironmentLimiter(production, sandbox)
		defer e.Close()

		// Production is stricter
		require.True(t, e.Check(webhook.Production, "ip").Allowed)
		require.False(t, e.Check(webhook.Production, "ip").Allowed)

		// The same identifier is still fresh in sandbox
		assert.True(t, e.Check(webhook.Sandbox, "ip").Allowed)
		assert.True(t, e.Check(webhook.Sandbox, "ip").Allowed)
		assert.False(t, e.Check(webhook.Sandbox, "ip").Allowed)
	})

	t.Run("entries reports live windows per environment", func(t *testing.T) {
		e := ratelimit.NewEnvironmentLimiter(
			ratelimit.NewLimiter(5, time.Minute),
			ratelimit.NewLimiter(5, time.Minute),
		)
		defer e.Close()

		e.Check(webhook.Production, "a")
		e.Check(webhook.Production, "b")
		e.Check(webhook.Sandbox, "c")

		assert.Equal(t, 2, e.Entries(webhook.Production))
		assert.Equal(t, 1, e.Entries(webhook.Sandbox))
	})
}
