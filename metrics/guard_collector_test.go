package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marcelsud/webhook-guard/dependency"
	"github.com/marcelsud/webhook-guard/outbound"
	"github.com/marcelsud/webhook-guard/ratelimit"
	"github.com/marcelsud/webhook-guard/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves receipt counts from memory
type fakeReader struct {
	counts map[string]int64
	err    error
}

func (f *fakeReader) Get(ctx context.Context, id string) (webhook.Receipt, error) {
	return webhook.Receipt{}, errors.New("not implemented")
}

func (f *fakeReader) GetByEventID(ctx context.Context, eventID string) (webhook.Receipt, error) {
	return webhook.Receipt{}, errors.New("not implemented")
}

func (f *fakeReader) CountByStatus(ctx context.Context) (map[string]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.counts, nil
}

func TestGuardCollector_Collect(t *testing.T) {
	ctx := context.Background()

	newLimiter := func(t *testing.T) *ratelimit.EnvironmentLimiter {
		t.Helper()
		limiter := ratelimit.NewEnvironmentLimiter(
			ratelimit.NewLimiter(10, time.Minute),
			ratelimit.NewLimiter(10, time.Minute),
		)
		t.Cleanup(limiter.Close)
		return limiter
	}

	t.Run("success - snapshots guards and receipt counters", func(t *testing.T) {
		loader := dependency.NewLoader()
		registry := outbound.NewRegistry(loader)
		limiter := newLimiter(t)
		limiter.Check(webhook.Production, "10.0.0.1")
		limiter.Check(webhook.Production, "10.0.0.2")
		limiter.Check(webhook.Sandbox, "10.0.0.1")

		reader := &fakeReader{counts: map[string]int64{
			"received":  10,
			"processed": 7,
			"rejected":  3,
		}}

		collector := NewGuardCollector(registry, limiter, reader)
		m, err := collector.Collect(ctx)

		require.NoError(t, err)
		assert.Empty(t, m.Breakers)
		assert.Equal(t, int64(2), m.RateLimitEntries["production"])
		assert.Equal(t, int64(1), m.RateLimitEntries["sandbox"])
		assert.Equal(t, int64(10), m.ReceiptCounts["received"])
		assert.Equal(t, int64(7), m.ReceiptCounts["processed"])
		assert.False(t, m.Timestamp.IsZero())
	})

	t.Run("includes one breaker snapshot per dependency", func(t *testing.T) {
		registry := outbound.NewRegistry(dependency.NewLoader())
		collector := NewGuardCollector(registry, newLimiter(t), &fakeReader{counts: map[string]int64{}})

		m, err := collector.Collect(ctx)
		require.NoError(t, err)
		assert.Len(t, m.Breakers, len(registry.List()))
	})

	t.Run("failure - reader errors propagate", func(t *testing.T) {
		registry := outbound.NewRegistry(dependency.NewLoader())
		reader := &fakeReader{err: errors.New("redis unavailable")}

		collector := NewGuardCollector(registry, newLimiter(t), reader)
		_, err := collector.Collect(ctx)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "counting receipts by status")
	})
}

func TestCollector_Interface(t *testing.T) {
	t.Run("GuardCollector implements Collector interface", func(t *testing.T) {
		var _ Collector = (*GuardCollector)(nil)
	})
}
