package dedup_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marcelsud/webhook-guard/dedup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("success - concurrent duplicates share one execution", func(t *testing.T) {
		d := dedup.New(time.Second)

		var calls atomic.Int32
		started := make(chan struct{})
		release := make(chan struct{})

		fn := func(ctx context.Context) (any, error) {
			calls.Add(1)
			close(started)
			<-release
			return "order_123", nil
		}

		var wg sync.WaitGroup
		results := make([]any, 5)
		errs := make([]error, 5)

		wg.Add(1)
		go func() {
			defer wg.Done()
			results[0], errs[0] = d.Do(ctx, "create-order", fn)
		}()
		<-started

		for i := 1; i < 5; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = d.Do(ctx, "create-order", func(ctx context.Context) (any, error) {
					calls.Add(1)
					return "should not run", nil
				})
			}(i)
		}

		// Give the waiters a moment to attach before settling
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
		for i := 0; i < 5; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, "order_123", results[i])
		}
	})

	t.Run("different keys run independently", func(t *testing.T) {
		d := dedup.New(time.Second)

		var calls atomic.Int32
		fn := func(ctx context.Context) (any, error) {
			calls.Add(1)
			return nil, nil
		}

		_, err := d.Do(ctx, "key-a", fn)
		require.NoError(t, err)
		_, err = d.Do(ctx, "key-b", fn)
		require.NoError(t, err)

		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("failure is forgotten immediately so the key can retry", func(t *testing.T) {
		d := dedup.New(time.Minute)

		_, err := d.Do(ctx, "flaky", func(ctx context.Context) (any, error) {
			return nil, errors.New("upstream unavailable")
		})
		require.Error(t, err)
		assert.Equal(t, 0, d.InFlight())

		val, err := d.Do(ctx, "flaky", func(ctx context.Context) (any, error) {
			return "recovered", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "recovered", val)
	})

	t.Run("success lingers for the ttl then evicts", func(t *testing.T) {
		d := dedup.New(50 * time.Millisecond)

		val, err := d.Do(ctx, "submit", func(ctx context.Context) (any, error) {
			return "first", nil
		})
		require.NoError(t, err)
		require.Equal(t, "first", val)

		// Within the TTL the settled result absorbs the duplicate
		val, err = d.Do(ctx, "submit", func(ctx context.Context) (any, error) {
			return "second", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "first", val)

		require.Eventually(t, func() bool {
			return d.InFlight() == 0
		}, time.Second, 10*time.Millisecond)

		val, err = d.Do(ctx, "submit", func(ctx context.Context) (any, error) {
			return "third", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "third", val)
	})

	t.Run("shared failures reach every waiter", func(t *testing.T) {
		d := dedup.New(time.Second)

		started := make(chan struct{})
		release := make(chan struct{})
		sentinel := errors.New("payment declined")

		var firstErr error
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, firstErr = d.Do(ctx, "pay", func(ctx context.Context) (any, error) {
				close(started)
				<-release
				return nil, sentinel
			})
		}()
		<-started

		var waiterErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, waiterErr = d.Do(ctx, "pay", func(ctx context.Context) (any, error) {
				return nil, nil
			})
		}()

		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Same(t, sentinel, firstErr)
		assert.Same(t, sentinel, waiterErr)
	})
}

func TestWaiterCancellation(t *testing.T) {
	d := dedup.New(time.Second)

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	go func() {
		_, _ = d.Do(context.Background(), "slow", func(ctx context.Context) (any, error) {
			close(started)
			<-release
			return "done", nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Do(ctx, "slow", func(ctx context.Context) (any, error) {
		return nil, nil
	})

	// The waiter observes its own cancellation, the shared execution keeps going
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, d.InFlight())
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	d := dedup.New(time.Minute)

	var calls atomic.Int32
	fn := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return nil, nil
	}

	_, err := d.Do(ctx, "key", fn)
	require.NoError(t, err)
	require.Equal(t, 1, d.InFlight())

	d.Forget("key")
	assert.Equal(t, 0, d.InFlight())

	_, err = d.Do(ctx, "key", fn)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
