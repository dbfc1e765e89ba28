package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/marcelsud/webhook-guard/ratelimit"
	"github.com/marcelsud/webhook-guard/webhook"
	"github.com/marcelsud/webhook-guard/webhook/replay"
	"github.com/marcelsud/webhook-guard/webhook/signature"
)

/* HTTP layer DTOs for the webhook API
 * Separate from domain entities to avoid leaking internal structure
 */

// inboundEvent represents the parsed body of a webhook delivery
type inboundEvent struct {
	EventID   string          `json:"event_id"`
	Type      string          `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
	Data      json.RawMessage `json:"data"`
}

func (e inboundEvent) validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if e.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	return nil
}

// receiptResponse represents the API response when a delivery is accepted
type receiptResponse struct {
	ReceiptID string `json:"receipt_id"`
	EventID   string `json:"event_id"`
}

// errorResponse is the structured body returned on every failure
type errorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

// postWebhook handles POST /v1/webhooks: the full inbound guard pipeline
// (rate limit -> signature -> payload parse -> replay) ahead of the service
func postWebhook(service webhook.UseCase, validator *signature.Validator, guard *replay.Guard, limiter *ratelimit.EnvironmentLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env := webhook.NewEnvironment(r.Header.Get(signature.HeaderEnvironment))

		// Rate limit before any expensive work
		rl := limiter.Check(env, clientIP(r))
		if !rl.Allowed {
			writeRateLimited(w, rl)
			return
		}

		// Signature is computed over the raw, unparsed body
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, rl, http.StatusBadRequest, "invalid request", "failed to read request body")
			return
		}
		defer r.Body.Close()

		hdr := signature.Headers{
			Signature256: r.Header.Get(signature.HeaderSignature256),
			Signature1:   r.Header.Get(signature.HeaderSignature1),
			Timestamp:    r.Header.Get(signature.HeaderTimestamp),
		}
		if !validator.Valid(env, hdr, body) {
			writeError(w, rl, http.StatusBadRequest, "invalid signature", "signature verification failed")
			return
		}

		var event inboundEvent
		if err := json.Unmarshal(body, &event); err != nil {
			writeError(w, rl, http.StatusBadRequest, "invalid payload", fmt.Sprintf("parsing body: %v", err))
			return
		}
		if err := event.validate(); err != nil {
			writeError(w, rl, http.StatusBadRequest, "invalid payload", err.Error())
			return
		}

		if result := guard.Validate(r.Context(), event.EventID, event.CreatedAt); !result.Valid {
			// A failed duplicate check is an outage on our side, not a bad
			// delivery; answer retryable so the sender redelivers
			status := http.StatusBadRequest
			if result.Reason == replay.ReasonCheckFailed {
				status = http.StatusInternalServerError
			}
			writeError(w, rl, status, result.Reason, result.Err.Error())
			return
		}

		receiptID, err := service.Receive(r.Context(), webhook.Event{
			EventID:     event.EventID,
			EventType:   event.Type,
			Environment: env,
			Payload:     body,
			ClientIP:    clientIP(r),
			CreatedAt:   event.CreatedAt,
			ReceivedAt:  time.Now(),
		})
		if err != nil {
			// Two deliveries can pass the replay check concurrently; the
			// atomic claim in the repository breaks the tie
			if errors.Is(err, webhook.ErrDuplicateEvent) {
				writeError(w, rl, http.StatusBadRequest, replay.ReasonDuplicate, err.Error())
				return
			}
			writeError(w, rl, http.StatusInternalServerError, "internal error", err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		response := receiptResponse{
			ReceiptID: receiptID,
			EventID:   event.EventID,
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// debugSignature handles POST /v1/webhooks/debug/signature: diagnostic
// verification with truncated previews, for operational troubleshooting only
func debugSignature(validator *signature.Validator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env := webhook.NewEnvironment(r.Header.Get(signature.HeaderEnvironment))

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		hdr := signature.Headers{
			Signature256: r.Header.Get(signature.HeaderSignature256),
			Signature1:   r.Header.Get(signature.HeaderSignature1),
			Timestamp:    r.Header.Get(signature.HeaderTimestamp),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(validator.Diagnose(env, hdr, body)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// writeRateLimited responds 429 derived from the limiter's result
func writeRateLimited(w http.ResponseWriter, rl ratelimit.Result) {
	writeError(w, rl, http.StatusTooManyRequests, "rate limit exceeded", rl.Message)
}

// writeError responds with the structured failure body and rate limit headers
func writeError(w http.ResponseWriter, rl ratelimit.Result, status int, errMsg, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Rate-Limit-Remaining", strconv.Itoa(rl.Remaining))
	w.Header().Set("X-Rate-Limit-Reset", strconv.FormatInt(rl.ResetAt.Unix(), 10))
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(errorResponse{
		Error:     errMsg,
		Details:   details,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
