package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/webhook-guard/breaker"
	"github.com/marcelsud/webhook-guard/outbound"
	"github.com/marcelsud/webhook-guard/ratelimit"
	"github.com/marcelsud/webhook-guard/webhook"
)

// Metrics represents the current state of the webhook gateway.
type Metrics struct {
	// Breakers holds one snapshot per guarded dependency
	Breakers []breaker.Stats `json:"breakers"`

	// RateLimitEntries maps environment name to live rate limit windows
	RateLimitEntries map[string]int64 `json:"rate_limit_entries"`

	// DedupInFlight maps dependency name to live deduplication entries
	DedupInFlight map[string]int64 `json:"dedup_in_flight"`

	// ReceiptCounts maps receipt status to count
	ReceiptCounts map[string]int64 `json:"receipt_counts"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// Collector defines the interface for collecting metrics from the gateway.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)
}

/* GuardCollector snapshots the in-process guards (breakers, rate limiter,
 * deduplicators) and the persisted receipt counters
 */
type GuardCollector struct {
	registry *outbound.Registry
	limiter  *ratelimit.EnvironmentLimiter
	receipts webhook.Reader
}

// NewGuardCollector creates a collector over the gateway's guard instances
func NewGuardCollector(registry *outbound.Registry, limiter *ratelimit.EnvironmentLimiter, receipts webhook.Reader) *GuardCollector {
	return &GuardCollector{
		registry: registry,
		limiter:  limiter,
		receipts: receipts,
	}
}

// Collect gathers current metrics from the system
func (c *GuardCollector) Collect(ctx context.Context) (Metrics, error) {
	m := Metrics{
		RateLimitEntries: make(map[string]int64),
		DedupInFlight:    make(map[string]int64),
		ReceiptCounts:    make(map[string]int64),
		Timestamp:        time.Now(),
	}

	for _, caller := range c.registry.List() {
		m.Breakers = append(m.Breakers, caller.BreakerStats())
		m.DedupInFlight[caller.Name()] = int64(caller.InFlight())
	}

	for _, env := range []webhook.Environment{webhook.Production, webhook.Sandbox} {
		m.RateLimitEntries[env.String()] = int64(c.limiter.Entries(env))
	}

	counts, err := c.receipts.CountByStatus(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("counting receipts by status: %w", err)
	}
	m.ReceiptCounts = counts

	return m, nil
}
