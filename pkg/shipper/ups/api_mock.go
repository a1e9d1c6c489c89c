package ups

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

// MockTransport is a mock implementation of Transport for testing.
type MockTransport struct {
	SimulateErrors bool

	OnPost func(ctx context.Context, path string, body any, headers map[string]string) (*Response, error)

	mu       sync.Mutex
	requests []MockRequest
}

// MockRequest records one call made through the mock transport.
type MockRequest struct {
	Path    string
	Body    any
	Headers map[string]string
}

// NewMockTransport creates a new mock transport with default behavior.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Post records the call and returns a canned rate response.
func (m *MockTransport) Post(ctx context.Context, path string, body any, headers map[string]string) (*Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, MockRequest{Path: path, Body: body, Headers: headers})
	m.mu.Unlock()

	if m.SimulateErrors {
		return nil, &TransportError{
			Status: http.StatusInternalServerError,
			Body:   []byte(`{"response":{"errors":[{"code":"10000","message":"Simulated carrier failure"}]}}`),
		}
	}

	if m.OnPost != nil {
		return m.OnPost(ctx, path, body, headers)
	}

	return &Response{Status: http.StatusOK, Body: []byte(defaultRateResponseBody)}, nil
}

// Requests returns a copy of all recorded calls.
func (m *MockTransport) Requests() []MockRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockRequest(nil), m.requests...)
}

const defaultRateResponseBody = `{
  "RateResponse": {
    "Response": {
      "ResponseStatus": {"Code": "1", "Description": "Success"}
    },
    "RatedShipment": {
      "Service": {"Code": "03", "Description": "Ground"},
      "TotalCharges": {"CurrencyCode": "USD", "MonetaryValue": "25.80"},
      "RatedPackage": {
        "BaseServiceCharge": {"CurrencyCode": "USD", "MonetaryValue": "21.10"},
        "TransportationCharges": {"CurrencyCode": "USD", "MonetaryValue": "24.30"}
      }
    }
  }
}`

// MockTokenFetcher is a mock implementation of TokenFetcher for testing.
type MockTokenFetcher struct {
	SimulateErrors bool

	OnFetchToken func(ctx context.Context) (*Credential, error)

	mu    sync.Mutex
	calls int
}

// NewMockTokenFetcher creates a new mock token fetcher with default behavior.
func NewMockTokenFetcher() *MockTokenFetcher {
	return &MockTokenFetcher{}
}

// FetchToken returns a static credential valid for one hour.
func (m *MockTokenFetcher) FetchToken(ctx context.Context) (*Credential, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.SimulateErrors {
		return nil, errors.New("simulated token fetch failure")
	}

	if m.OnFetchToken != nil {
		return m.OnFetchToken(ctx)
	}

	return &Credential{AccessToken: "mock-token", ExpiresIn: 3600}, nil
}

// CallCount returns how many times FetchToken was invoked.
func (m *MockTokenFetcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var (
	_ Transport    = (*MockTransport)(nil)
	_ TokenFetcher = (*MockTokenFetcher)(nil)
)
