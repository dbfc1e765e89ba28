package ratelimit

import "github.com/marcelsud/webhook-guard/webhook"

/* EnvironmentLimiter holds two independent limiters, one per sender
 * environment, selected by a discriminator passed with the identifier
 * rather than by separate code paths. Production thresholds are stricter
 * than sandbox ones
 */
type EnvironmentLimiter struct {
	production *Limiter
	sandbox    *Limiter
}

// NewEnvironmentLimiter wraps independent production and sandbox limiters
func NewEnvironmentLimiter(production, sandbox *Limiter) *EnvironmentLimiter {
	return &EnvironmentLimiter{
		production: production,
		sandbox:    sandbox,
	}
}

// Check counts one request against the limiter for the given environment
func (e *EnvironmentLimiter) Check(env webhook.Environment, identifier string) Result {
	return e.limiterFor(env).Check(identifier)
}

// Entries returns the number of live windows for the given environment
func (e *EnvironmentLimiter) Entries(env webhook.Environment) int {
	return e.limiterFor(env).Entries()
}

// Close stops both limiters' sweep goroutines
func (e *EnvironmentLimiter) Close() {
	e.production.Close()
	e.sandbox.Close()
}

func (e *EnvironmentLimiter) limiterFor(env webhook.Environment) *Limiter {
	if env == webhook.Sandbox {
		return e.sandbox
	}
	return e.production
}
