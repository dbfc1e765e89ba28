package upstream

import (
	"errors"
	"net/http"
	"strings"
)

/* Classify is the single ingestion boundary where untyped failures from
 * third-party SDKs are mapped onto the closed taxonomy. Downstream code
 * (circuit breaker, retry wrapper, HTTP layer) operates on typed errors
 * only; the duck-typed probing below must not spread beyond this file
 */

// Phrases that mark a failure as non-retryable regardless of status code.
// Some upstream SDKs surface these as plain strings rather than typed errors.
var nonRetryablePhrases = []string{
	"merchant mismatch",
	"different merchant",
	"forbidden",
}

// statusCoder is implemented by SDK errors exposing an HTTP status code
type statusCoder interface {
	StatusCode() int
}

// httpStatuser is an alternative status-code shape seen in the wild
type httpStatuser interface {
	HTTPStatus() int
}

// Classify maps an arbitrary error onto the closed taxonomy.
// Typed errors pass through unchanged. Untyped errors are probed for a
// status code and known phrases; anything unclassifiable becomes a
// non-retryable BadRequest, deliberately conservative to avoid infinite
// retry loops on unknown failure modes.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range nonRetryablePhrases {
		if strings.Contains(msg, phrase) {
			return &Error{
				Code:       CodeMerchantMismatch,
				HTTPStatus: http.StatusForbidden,
				Retryable:  false,
				Message:    err.Error(),
				Cause:      err,
			}
		}
	}

	if status, ok := statusOf(err); ok {
		switch {
		case status == http.StatusTooManyRequests:
			return RateLimited(err.Error(), 0)
		case status >= 500:
			e := ServerError(err.Error(), err)
			e.HTTPStatus = status
			return e
		case status == http.StatusUnauthorized:
			return Unauthorized(err.Error())
		case status == http.StatusForbidden:
			return MerchantMismatch(err.Error())
		case status == http.StatusNotFound:
			return NotFound(err.Error())
		case status >= 400:
			return BadRequest(err.Error())
		}
	}

	e := BadRequest(err.Error())
	e.Cause = err
	return e
}

// IsRetryable reports whether the caller should retry the failed operation.
// Typed errors use their static policy; untyped errors are retryable only
// for a probed 429 or 5xx status.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	classified := Classify(err)
	return classified.Retryable
}

// IsNonRetryable is the complement of IsRetryable. Anything unclassifiable
// defaults to non-retryable.
func IsNonRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !IsRetryable(err)
}

// statusOf probes an untyped error for an HTTP status code
func statusOf(err error) (int, bool) {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode(), true
	}
	var hs httpStatuser
	if errors.As(err, &hs) {
		return hs.HTTPStatus(), true
	}
	return 0, false
}
