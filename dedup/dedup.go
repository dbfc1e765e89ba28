package dedup

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long a settled successful entry keeps absorbing
// duplicate calls before it is evicted
const DefaultTTL = 5 * time.Second

/* entry is one shared execution
 * done is closed when fn settles; waiters observe the same value and error
 * the first caller did. This is execution-sharing, not response caching
 * beyond the configured post-success window
 */
type entry struct {
	done chan struct{}
	val  any
	err  error
}

/* Deduplicator collapses concurrent duplicate operations, identified by a
 * caller-supplied key, into one underlying execution
 * State is process-local: duplicates arriving on different instances run
 * independently. A failed execution is forgotten immediately so the next
 * call with the same key can retry; a successful one lingers for the TTL,
 * deliberately absorbing rapid double submissions. Callers that need a
 * fresh execution after a success must vary the key (e.g. add a nonce)
 */
type Deduplicator struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
}

// New creates a deduplicator. A non-positive ttl uses DefaultTTL.
func New(ttl time.Duration) *Deduplicator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Deduplicator{
		entries: make(map[string]*entry),
		ttl:     ttl,
	}
}

// Do executes fn once per key. Concurrent and briefly-subsequent callers
// with the same key share the first execution's outcome. Waiters honor
// their own context cancellation without cancelling the shared execution.
func (d *Deduplicator) Do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	d.mu.Lock()
	if e, inflight := d.entries[key]; inflight {
		d.mu.Unlock()
		return d.wait(ctx, e)
	}

	e := &entry{done: make(chan struct{})}
	d.entries[key] = e
	d.mu.Unlock()

	e.val, e.err = fn(ctx)

	d.mu.Lock()
	if e.err != nil {
		// Forget failures immediately so the key can be retried
		delete(d.entries, key)
	} else {
		// Keep the settled entry for the TTL, then evict. The timer fires
		// whether or not anything re-reads the entry.
		time.AfterFunc(d.ttl, func() {
			d.mu.Lock()
			if d.entries[key] == e {
				delete(d.entries, key)
			}
			d.mu.Unlock()
		})
	}
	d.mu.Unlock()

	close(e.done)
	return e.val, e.err
}

// wait blocks until the shared execution settles or the waiter's own
// context is done
func (d *Deduplicator) wait(ctx context.Context, e *entry) (any, error) {
	select {
	case <-e.done:
		return e.val, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Forget drops the entry for a key, if any. In-flight executions still
// settle for waiters already attached.
func (d *Deduplicator) Forget(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, key)
}

// InFlight returns the number of live entries, used by the metrics collector
func (d *Deduplicator) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}
