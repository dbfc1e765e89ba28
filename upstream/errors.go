package upstream

import (
	"fmt"
	"net/http"
	"time"
)

// Code is a machine-readable identifier for an upstream failure kind
type Code string

const (
	CodeMerchantMismatch Code = "MERCHANT_MISMATCH"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeBadRequest       Code = "BAD_REQUEST"
	CodeNotFound         Code = "RESOURCE_NOT_FOUND"
	CodeRateLimited      Code = "RATE_LIMITED"
	CodeServerError      Code = "SERVER_ERROR"
)

// DefaultRetryAfter is assumed when an upstream throttles without a hint
const DefaultRetryAfter = 60 * time.Second

/* Error is a typed upstream failure carrying a static retry policy
 * The taxonomy is closed: every failure entering the system is mapped to
 * one of these kinds at the ingestion boundary (see Classify), so
 * downstream classification never probes ad hoc error shapes
 */
type Error struct {
	Code       Code
	HTTPStatus int
	Retryable  bool
	RetryAfter time.Duration
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause, if any
func (e *Error) Unwrap() error {
	return e.Cause
}

// MerchantMismatch reports an order belonging to a different account or environment
func MerchantMismatch(message string) *Error {
	return &Error{
		Code:       CodeMerchantMismatch,
		HTTPStatus: http.StatusForbidden,
		Retryable:  false,
		Message:    message,
	}
}

// Unauthorized reports invalid or expired upstream credentials
func Unauthorized(message string) *Error {
	return &Error{
		Code:       CodeUnauthorized,
		HTTPStatus: http.StatusUnauthorized,
		Retryable:  false,
		Message:    message,
	}
}

// BadRequest reports a malformed request to the upstream API
func BadRequest(message string) *Error {
	return &Error{
		Code:       CodeBadRequest,
		HTTPStatus: http.StatusBadRequest,
		Retryable:  false,
		Message:    message,
	}
}

// NotFound reports a referenced resource absent upstream
func NotFound(message string) *Error {
	return &Error{
		Code:       CodeNotFound,
		HTTPStatus: http.StatusNotFound,
		Retryable:  false,
		Message:    message,
	}
}

// RateLimited reports upstream throttling. A zero retryAfter uses the default.
func RateLimited(message string, retryAfter time.Duration) *Error {
	if retryAfter <= 0 {
		retryAfter = DefaultRetryAfter
	}
	return &Error{
		Code:       CodeRateLimited,
		HTTPStatus: http.StatusTooManyRequests,
		Retryable:  true,
		RetryAfter: retryAfter,
		Message:    message,
	}
}

// ServerError reports a transient upstream failure
func ServerError(message string, cause error) *Error {
	return &Error{
		Code:       CodeServerError,
		HTTPStatus: http.StatusInternalServerError,
		Retryable:  true,
		Message:    message,
		Cause:      cause,
	}
}
