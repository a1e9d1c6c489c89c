// Package mock provides a mock shipper implementation for testing.
package mock

import (
	"context"
	"fmt"

	"github.com/tournevent/ratebridge/pkg/shipper"
)

// Client is a mock shipper for testing and local development.
type Client struct {
	name string
}

// New creates a new mock shipper.
func New(name string) *Client {
	return &Client{name: name}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

// GetRates returns mock shipping rate quotes.
func (c *Client) GetRates(ctx context.Context, req *shipper.RateRequest) ([]shipper.RateQuote, error) {
	base := 12.50
	transportation := 11.00

	return []shipper.RateQuote{
		{
			Carrier:              c.name,
			ServiceCode:          "03",
			ServiceName:          fmt.Sprintf("%s Ground", c.name),
			Amount:               15.82,
			Currency:             "USD",
			BaseCharge:           &base,
			TransportationCharge: &transportation,
		},
	}, nil
}
