package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/webhook-guard/webhook"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of webhook.Repository
 * Uses Redis Hashes for receipt metadata storage and SET NX for the
 * atomic event-id claim backing replay protection
 */

const (
	receiptPrefix = "receipt"         // Hash naming: receipt:{receipt_id}
	eventPrefix   = "event"           // Claim naming: event:{event_id} -> receipt_id
	statusPrefix  = "receipts:status" // Counter naming: receipts:status:{status}
)

// DefaultEventTTL is how long an event-id claim is retained. It must exceed
// the replay guard's max event age, otherwise an expired claim would let an
// old-but-in-window event through twice.
const DefaultEventTTL = 24 * time.Hour

type Repository struct {
	client   *redis.Client
	eventTTL time.Duration
}

// NewRepository creates a new Redis repository
func NewRepository(addr, password string, db int) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Repository{
		client:   client,
		eventTTL: DefaultEventTTL,
	}, nil
}

// Record stores a receipt and claims its event ID atomically.
// The SET NX on the event key makes the first caller win; any later caller
// for the same event ID gets webhook.ErrDuplicateEvent.
func (r *Repository) Record(ctx context.Context, receipt webhook.Receipt) (string, error) {
	eventKey := fmt.Sprintf("%s:%s", eventPrefix, receipt.EventID)

	claimed, err := r.client.SetNX(ctx, eventKey, receipt.ID, r.eventTTL).Result()
	if err != nil {
		return "", fmt.Errorf("claiming event id: %w", err)
	}
	if !claimed {
		existing, err := r.client.Get(ctx, eventKey).Result()
		if err != nil {
			existing = "unknown"
		}
		return "", fmt.Errorf("event %s already recorded as receipt %s: %w",
			receipt.EventID, existing, webhook.ErrDuplicateEvent)
	}

	hashKey := fmt.Sprintf("%s:%s", receiptPrefix, receipt.ID)
	err = r.client.HSet(ctx, hashKey, map[string]interface{}{
		"id":          receipt.ID,
		"event_id":    receipt.EventID,
		"event_type":  receipt.EventType,
		"environment": receipt.Environment.String(),
		"status":      receipt.Status.String(),
		"reason":      receipt.Reason,
		"received_at": receipt.ReceivedAt.Unix(),
	}).Err()
	if err != nil {
		return "", fmt.Errorf("storing receipt metadata: %w", err)
	}

	statusKey := fmt.Sprintf("%s:%s", statusPrefix, receipt.Status.String())
	if err := r.client.Incr(ctx, statusKey).Err(); err != nil {
		return "", fmt.Errorf("incrementing status counter: %w", err)
	}

	return receipt.ID, nil
}

// Seen reports whether an event ID has already been claimed
func (r *Repository) Seen(ctx context.Context, eventID string) (bool, error) {
	eventKey := fmt.Sprintf("%s:%s", eventPrefix, eventID)

	exists, err := r.client.Exists(ctx, eventKey).Result()
	if err != nil {
		return false, fmt.Errorf("checking event id: %w", err)
	}
	return exists > 0, nil
}

// Get retrieves a receipt by ID from Redis hash
func (r *Repository) Get(ctx context.Context, id string) (webhook.Receipt, error) {
	hashKey := fmt.Sprintf("%s:%s", receiptPrefix, id)

	data, err := r.client.HGetAll(ctx, hashKey).Result()
	if err != nil {
		return webhook.Receipt{}, fmt.Errorf("getting receipt: %w", err)
	}
	if len(data) == 0 {
		return webhook.Receipt{}, fmt.Errorf("receipt not found: %s", id)
	}

	receipt := webhook.Receipt{
		ID:          data["id"],
		EventID:     data["event_id"],
		EventType:   data["event_type"],
		Environment: webhook.NewEnvironment(data["environment"]),
		Status:      webhook.NewStatus(data["status"]),
		Reason:      data["reason"],
		ReceivedAt:  time.Unix(parseInt64(data["received_at"]), 0),
	}
	if ts := parseInt64(data["processed_at"]); ts > 0 {
		receipt.ProcessedAt = time.Unix(ts, 0)
	}

	return receipt, nil
}

// GetByEventID retrieves the receipt recorded for an event ID
func (r *Repository) GetByEventID(ctx context.Context, eventID string) (webhook.Receipt, error) {
	eventKey := fmt.Sprintf("%s:%s", eventPrefix, eventID)

	receiptID, err := r.client.Get(ctx, eventKey).Result()
	if err == redis.Nil {
		return webhook.Receipt{}, fmt.Errorf("no receipt for event: %s", eventID)
	}
	if err != nil {
		return webhook.Receipt{}, fmt.Errorf("resolving event id: %w", err)
	}

	return r.Get(ctx, receiptID)
}

// CountByStatus returns the number of receipts recorded per status
func (r *Repository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, status := range []webhook.Status{webhook.Received, webhook.Processed, webhook.Rejected} {
		statusKey := fmt.Sprintf("%s:%s", statusPrefix, status.String())
		val, err := r.client.Get(ctx, statusKey).Result()
		if err == redis.Nil {
			counts[status.String()] = 0
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("getting status counter: %w", err)
		}
		counts[status.String()] = parseInt64(val)
	}
	return counts, nil
}

// UpdateStatus updates the status of a receipt and keeps the counters in sync
func (r *Repository) UpdateStatus(ctx context.Context, id string, status webhook.Status, reason string) error {
	hashKey := fmt.Sprintf("%s:%s", receiptPrefix, id)

	previous, err := r.client.HGet(ctx, hashKey, "status").Result()
	if err == redis.Nil {
		return fmt.Errorf("receipt not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("getting current status: %w", err)
	}

	err = r.client.HSet(ctx, hashKey, map[string]interface{}{
		"status":       status.String(),
		"reason":       reason,
		"processed_at": time.Now().Unix(),
	}).Err()
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Decr(ctx, fmt.Sprintf("%s:%s", statusPrefix, previous))
	pipe.Incr(ctx, fmt.Sprintf("%s:%s", statusPrefix, status.String()))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("updating status counters: %w", err)
	}

	return nil
}

// SetTTL sets an expiration time on a receipt hash
func (r *Repository) SetTTL(ctx context.Context, id string, ttl time.Duration) error {
	hashKey := fmt.Sprintf("%s:%s", receiptPrefix, id)

	if err := r.client.Expire(ctx, hashKey, ttl).Err(); err != nil {
		return fmt.Errorf("setting TTL on receipt: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

// GetClient returns the underlying Redis client for advanced operations
func (r *Repository) GetClient() *redis.Client {
	return r.client
}

func parseInt64(s string) int64 {
	var result int64
	fmt.Sscanf(s, "%d", &result)
	return result
}
