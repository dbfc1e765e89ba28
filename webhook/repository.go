package webhook

import (
	"context"
	"time"
)

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 * Written for users of the API, not just for testing
 */

// Reader provides read operations for receipts
type Reader interface {
	/* Context is always the first parameter in functions that do I/O
	 * This allows for cancellation, timeouts, and shared values
	 */
	Get(ctx context.Context, id string) (Receipt, error)
	GetByEventID(ctx context.Context, eventID string) (Receipt, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// Writer provides write operations for receipts
type Writer interface {
	/* Record stores a receipt and claims its EventID atomically
	 * The first caller for a given EventID wins; later callers get
	 * ErrDuplicateEvent
	 */
	Record(ctx context.Context, receipt Receipt) (string, error)
	UpdateStatus(ctx context.Context, id string, status Status, reason string) error
	/* SetTTL sets an expiration time on a receipt
	 * Used to automatically clean up processed and rejected receipts
	 */
	SetTTL(ctx context.Context, id string, ttl time.Duration) error
}

// DuplicateChecker answers whether an event identifier has been seen before.
// This is the fast-path check used by the replay guard; the atomic claim of
// an EventID happens in Writer.Record, so two concurrent deliveries passing
// this check still resolve to a single recorded receipt.
type DuplicateChecker interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

/* Interface composition - combining small interfaces into larger ones
 * This is preferred over large monolithic interfaces
 */
type Repository interface {
	Reader
	Writer
	DuplicateChecker
	Close(ctx context.Context) error
}
