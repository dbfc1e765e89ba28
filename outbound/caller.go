package outbound

import (
	"context"
	"fmt"

	"github.com/marcelsud/webhook-guard/breaker"
	"github.com/marcelsud/webhook-guard/dedup"
	"github.com/marcelsud/webhook-guard/dependency"
	"github.com/marcelsud/webhook-guard/retry"
)

/* Caller composes the outbound guards for one dependency:
 * deduplicator -> circuit breaker -> timeout/retry wrapper -> fn
 * Breaker rejections and non-retryable classifications propagate to the
 * caller unchanged
 */
type Caller struct {
	name    string
	breaker *breaker.Breaker
	dedup   *dedup.Deduplicator
	retry   retry.Config
}

// NewCaller builds the guard chain from a dependency configuration
func NewCaller(dep *dependency.Dependency) *Caller {
	return &Caller{
		name: dep.Name,
		breaker: breaker.New(dep.Name, breaker.Config{
			FailureThreshold: dep.FailureThreshold,
			ResetTimeout:     dep.ResetTimeout,
			HalfOpenRequests: dep.HalfOpenRequests,
		}),
		dedup: dedup.New(dep.DedupTTL),
		retry: retry.Config{
			Timeout:    dep.Timeout,
			MaxRetries: dep.MaxRetries,
			Backoff: retry.ExponentialBackoff{
				BaseInterval: dep.RetryBaseDelay,
				MaxInterval:  dep.RetryMaxDelay,
			},
			Op: dep.Name,
		},
	}
}

// Call runs fn through the full guard chain. Concurrent calls sharing the
// same key collapse into one execution; the breaker and retry wrapper guard
// the single underlying execution, so duplicates never multiply load on a
// struggling dependency.
func (c *Caller) Call(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	return c.dedup.Do(ctx, key, func(ctx context.Context) (any, error) {
		var result any
		err := c.breaker.Execute(ctx, func(ctx context.Context) error {
			return retry.Do(ctx, c.retry, func(ctx context.Context) error {
				var callErr error
				result, callErr = fn(ctx)
				return callErr
			})
		})
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

// Name returns the guarded dependency's name
func (c *Caller) Name() string {
	return c.name
}

// BreakerStats exposes the breaker snapshot for monitoring
func (c *Caller) BreakerStats() breaker.Stats {
	return c.breaker.Stats()
}

// InFlight returns the number of live deduplication entries
func (c *Caller) InFlight() int {
	return c.dedup.InFlight()
}

/* Registry owns one Caller per configured dependency
 * Constructed at startup and injected where outbound calls are made:
 * no module-level singletons, so tests get clean per-instance state
 */
type Registry struct {
	callers map[string]*Caller
	order   []string
}

// NewRegistry builds callers for every dependency in the loader
func NewRegistry(loader *dependency.Loader) *Registry {
	r := &Registry{
		callers: make(map[string]*Caller),
	}
	for _, dep := range loader.List() {
		r.callers[dep.Name] = NewCaller(dep)
		r.order = append(r.order, dep.Name)
	}
	return r
}

// Get retrieves the caller for a dependency by name
func (r *Registry) Get(name string) (*Caller, error) {
	caller, exists := r.callers[name]
	if !exists {
		return nil, fmt.Errorf("no guarded caller for dependency: %s", name)
	}
	return caller, nil
}

// List returns all callers in configuration order
func (r *Registry) List() []*Caller {
	callers := make([]*Caller, 0, len(r.order))
	for _, name := range r.order {
		callers = append(callers, r.callers[name])
	}
	return callers
}
