package ups

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// requestTimeout is the fixed upper bound enforced on every carrier call.
const requestTimeout = 30 * time.Second

// Transport abstracts the HTTP layer of the carrier integration.
// This allows mock implementations during testing and keeps the rate
// operation free of raw net/http error handling.
type Transport interface {
	// Post sends body as JSON to baseURL+path and returns the raw response.
	// Non-2xx statuses, timeouts and connection failures surface as a
	// *TransportError.
	Post(ctx context.Context, path string, body any, headers map[string]string) (*Response, error)
}

// Response is a successful (2xx) transport result.
type Response struct {
	Status int
	Body   []byte
}

// TransportError is the normalized failure outcome of a transport call.
// Exactly one of the status/timeout/connection dimensions describes the
// failure; downstream classification switches on these fields instead of
// sniffing error strings.
type TransportError struct {
	Status      int // HTTP status for non-2xx responses, 0 otherwise.
	Body        []byte
	Headers     http.Header
	Timeout     bool
	ConnFailure bool
	Cause       error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("transport timeout: %v", e.Cause)
	case e.ConnFailure:
		return fmt.Sprintf("transport connection failure: %v", e.Cause)
	default:
		return fmt.Sprintf("transport error: status %d", e.Status)
	}
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// HTTPTransport is the production implementation of Transport.
type HTTPTransport struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPTransport creates a new HTTP transport for production use.
func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	if timeout == 0 {
		timeout = requestTimeout
	}
	return &HTTPTransport{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Post sends a JSON request to the carrier API.
func (t *HTTPTransport) Post(ctx context.Context, path string, body any, headers map[string]string) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, normalizeRequestError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{ConnFailure: true, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Status:  resp.StatusCode,
			Body:    data,
			Headers: resp.Header,
		}
	}

	return &Response{Status: resp.StatusCode, Body: data}, nil
}

// normalizeRequestError maps net/http round-trip failures onto the
// TransportError timeout/connection flags.
func normalizeRequestError(err error) *TransportError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Timeout: true, Cause: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &TransportError{Timeout: true, Cause: err}
	}

	return &TransportError{ConnFailure: true, Cause: err}
}

var _ Transport = (*HTTPTransport)(nil)
