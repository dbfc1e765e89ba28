package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

/* Service represents the business logic layer
 * Uses pointer semantics as it's an API, not data
 */

// ErrDuplicateEvent is returned when an event identifier was already recorded.
var ErrDuplicateEvent = errors.New("event already recorded")

// UseCase defines the business operations for webhook receipt management
type UseCase interface {
	Receive(ctx context.Context, event Event) (string, error)
	MarkProcessed(ctx context.Context, receiptID string) error
	MarkRejected(ctx context.Context, receiptID string, reason string) error
}

type Service struct {
	Repo Repository
}

// NewService creates a new webhook service with dependency injection
func NewService(repo Repository) *Service {
	return &Service{
		Repo: repo,
	}
}

// Receive records a receipt for a validated event. The guard pipeline
// (signature, replay, rate limit) runs before this in the HTTP layer.
func (s *Service) Receive(ctx context.Context, event Event) (string, error) {
	if event.EventID == "" {
		return "", fmt.Errorf("validating event: event_id is required")
	}
	if err := event.Environment.Validate(); err != nil {
		return "", fmt.Errorf("validating environment: %w", err)
	}

	receipt := Receipt{
		ID:          uuid.New().String(),
		EventID:     event.EventID,
		EventType:   event.EventType,
		Environment: event.Environment,
		Status:      Received,
		ReceivedAt:  time.Now(),
	}

	id, err := s.Repo.Record(ctx, receipt)
	if err != nil {
		return "", fmt.Errorf("recording receipt: %w", err)
	}

	return id, nil
}

// MarkProcessed marks a receipt as successfully handled
func (s *Service) MarkProcessed(ctx context.Context, receiptID string) error {
	if err := s.Repo.UpdateStatus(ctx, receiptID, Processed, ""); err != nil {
		return fmt.Errorf("updating receipt status: %w", err)
	}
	return nil
}

// MarkRejected marks a receipt as rejected with the reason for the rejection
func (s *Service) MarkRejected(ctx context.Context, receiptID string, reason string) error {
	if err := s.Repo.UpdateStatus(ctx, receiptID, Rejected, reason); err != nil {
		return fmt.Errorf("updating receipt status: %w", err)
	}
	return nil
}
