package dependency

import (
	"fmt"
	"time"
)

/* Dependency describes one guarded upstream service
 * Maps a name to the timeout, retry, circuit breaker and deduplication
 * settings applied to every outbound call to that service
 */
type Dependency struct {
	Name             string
	Timeout          time.Duration
	MaxRetries       int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	FailureThreshold int
	ResetTimeout     time.Duration
	HalfOpenRequests int
	DedupTTL         time.Duration
}

// Validate checks if the dependency configuration is valid
func (d *Dependency) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if d.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive for dependency %s", d.Name)
	}
	if d.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative for dependency %s", d.Name)
	}
	if d.RetryBaseDelay < 0 || d.RetryMaxDelay < 0 {
		return fmt.Errorf("retry delays cannot be negative for dependency %s", d.Name)
	}
	if d.RetryMaxDelay > 0 && d.RetryBaseDelay > d.RetryMaxDelay {
		return fmt.Errorf("retry_base_delay exceeds retry_max_delay for dependency %s", d.Name)
	}
	if d.FailureThreshold < 1 {
		return fmt.Errorf("failure_threshold must be at least 1 for dependency %s", d.Name)
	}
	if d.ResetTimeout <= 0 {
		return fmt.Errorf("reset_timeout must be positive for dependency %s", d.Name)
	}
	if d.HalfOpenRequests < 1 {
		return fmt.Errorf("half_open_requests must be at least 1 for dependency %s", d.Name)
	}
	if d.DedupTTL < 0 {
		return fmt.Errorf("dedup_ttl cannot be negative for dependency %s", d.Name)
	}
	return nil
}
