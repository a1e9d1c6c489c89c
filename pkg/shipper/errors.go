package shipper

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a carrier error so that callers can decide how to react
// (retry, surface to the user, alert operations) without inspecting carrier
// specifics.
type Kind string

const (
	// KindAuthentication indicates a credential problem. Not retryable.
	KindAuthentication Kind = "authentication"

	// KindValidation indicates bad caller input, rejected before the
	// carrier was called. Not retryable.
	KindValidation Kind = "validation"

	// KindHTTPClient indicates the carrier rejected the request (4xx).
	// Not retryable.
	KindHTTPClient Kind = "http_client"

	// KindHTTPServer indicates a transient upstream failure (5xx). Retryable.
	KindHTTPServer Kind = "http_server"

	// KindRateLimit indicates the carrier throttled the request. Retryable,
	// honoring RetryAfter when present.
	KindRateLimit Kind = "rate_limit"

	// KindTimeout indicates the request exceeded the transport deadline.
	// Retryable.
	KindTimeout Kind = "timeout"

	// KindNetwork indicates a connectivity failure (DNS, connection refused).
	// Retryable.
	KindNetwork Kind = "network"

	// KindMalformedResponse indicates the carrier violated its own response
	// contract. Not retryable; RawBody carries the payload for diagnosis.
	KindMalformedResponse Kind = "malformed_response"
)

// Error represents a classified error from a shipping carrier.
type Error struct {
	Carrier    string
	Kind       Kind
	Message    string
	StatusCode int
	Retryable  bool
	RetryAfter time.Duration // Populated for rate limit errors when the carrier says how long to wait.
	Timeout    time.Duration // Populated for timeout errors with the transport deadline that was exceeded.
	RawBody    string        // Populated for malformed response errors.
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Carrier, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Carrier, e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for Error. Two errors match when their kinds match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError creates a new classified Error.
func NewError(carrier string, kind Kind, message string) *Error {
	return &Error{
		Carrier: carrier,
		Kind:    kind,
		Message: message,
	}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *Error) WithStatusCode(code int) *Error {
	e.StatusCode = code
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithRetryAfter records how long the carrier asked us to back off.
func (e *Error) WithRetryAfter(d time.Duration) *Error {
	e.RetryAfter = d
	return e
}

// WithTimeout records the transport deadline that was exceeded.
func (e *Error) WithTimeout(d time.Duration) *Error {
	e.Timeout = d
	return e
}

// WithRawBody attaches the raw response payload for diagnosis.
func (e *Error) WithRawBody(body string) *Error {
	e.RawBody = body
	return e
}

// ErrCarrierNotFound indicates the requested carrier is not registered.
var ErrCarrierNotFound = errors.New("carrier not found")

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Retryable
	}
	return false
}

// KindOf returns the classification of err, or "" when err is not a
// classified carrier error.
func KindOf(err error) Kind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return ""
}
