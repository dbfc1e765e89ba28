package webhook

import "time"

/* Event represents an inbound webhook delivery after the guard pipeline
 * Uses value semantics as it represents data, not behavior
 */
type Event struct {
	EventID     string
	EventType   string
	Environment Environment
	Payload     []byte
	Headers     map[string]string
	ClientIP    string
	CreatedAt   time.Time // timestamp claimed by the sender
	ReceivedAt  time.Time
}

/* Receipt records that an event was accepted exactly once
 * The receipt is the durable side of replay protection: the duplicate
 * check consults receipts keyed by EventID
 */
type Receipt struct {
	ID          string
	EventID     string
	EventType   string
	Environment Environment
	Status      Status
	Reason      string
	ReceivedAt  time.Time
	ProcessedAt time.Time
}
