// Package shipper provides an abstraction layer for shipping carriers.
package shipper

import (
	"context"
)

// Shipper defines the interface that all shipping carriers must implement.
type Shipper interface {
	// Name returns the carrier identifier (e.g., "ups").
	Name() string

	// GetRates returns shipping rate quotes for a shipment.
	GetRates(ctx context.Context, req *RateRequest) ([]RateQuote, error)
}
