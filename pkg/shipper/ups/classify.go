package ups

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tournevent/ratebridge/pkg/shipper"
)

// classify maps a raw transport or parse failure onto exactly one member of
// the shipper error taxonomy. Already-classified errors pass through
// untouched, so reclassification is idempotent.
func classify(err error) error {
	var cerr *shipper.Error
	if errors.As(err, &cerr) {
		return cerr
	}

	var terr *TransportError
	if errors.As(err, &terr) {
		return classifyTransport(terr)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return shipper.NewError(carrierName, shipper.KindMalformedResponse, "carrier returned unparseable response").
			WithCause(err)
	}

	if errors.Is(err, errMissingRatedShipment) {
		return shipper.NewError(carrierName, shipper.KindMalformedResponse, "carrier response missing rated shipment").
			WithCause(err)
	}

	// Unrecognized failures are treated as transient upstream faults.
	return shipper.NewError(carrierName, shipper.KindHTTPServer, "unexpected carrier failure").
		WithStatusCode(http.StatusInternalServerError).
		WithRetryable(true).
		WithCause(err)
}

// classifyWithBody classifies err and, for contract violations, attaches the
// raw response payload for diagnosis. Already-classified errors pass through
// untouched; the body is only attached to errors this call constructs.
func classifyWithBody(err error, body []byte) error {
	var pre *shipper.Error
	if errors.As(err, &pre) {
		return pre
	}

	classified := classify(err)
	var cerr *shipper.Error
	if errors.As(classified, &cerr) && cerr.Kind == shipper.KindMalformedResponse {
		return cerr.WithRawBody(string(body))
	}
	return classified
}

func classifyTransport(terr *TransportError) error {
	switch {
	case terr.Status == http.StatusUnauthorized:
		return shipper.NewError(carrierName, shipper.KindAuthentication, "carrier rejected credentials").
			WithStatusCode(terr.Status).
			WithCause(terr)

	case terr.Status == http.StatusTooManyRequests:
		e := shipper.NewError(carrierName, shipper.KindRateLimit, "carrier rate limit exceeded").
			WithStatusCode(terr.Status).
			WithRetryable(true).
			WithCause(terr)
		if d, ok := retryAfter(terr.Headers); ok {
			e = e.WithRetryAfter(d)
		}
		return e

	case terr.Status >= 400 && terr.Status < 500:
		return shipper.NewError(carrierName, shipper.KindHTTPClient, fmt.Sprintf("carrier rejected request: status %d", terr.Status)).
			WithStatusCode(terr.Status).
			WithCause(terr)

	case terr.Status >= 500:
		return shipper.NewError(carrierName, shipper.KindHTTPServer, fmt.Sprintf("carrier upstream failure: status %d", terr.Status)).
			WithStatusCode(terr.Status).
			WithRetryable(true).
			WithCause(terr)

	case terr.Timeout:
		return shipper.NewError(carrierName, shipper.KindTimeout, "carrier request timed out").
			WithRetryable(true).
			WithTimeout(requestTimeout).
			WithCause(terr)

	case terr.ConnFailure:
		return shipper.NewError(carrierName, shipper.KindNetwork, "carrier unreachable").
			WithRetryable(true).
			WithCause(terr)

	default:
		return shipper.NewError(carrierName, shipper.KindHTTPServer, "unexpected transport failure").
			WithStatusCode(http.StatusInternalServerError).
			WithRetryable(true).
			WithCause(terr)
	}
}

// retryAfter extracts the carrier's requested backoff, sent in whole seconds.
func retryAfter(h http.Header) (time.Duration, bool) {
	if h == nil {
		return 0, false
	}
	raw := h.Get("Retry-After")
	if raw == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
