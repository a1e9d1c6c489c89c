package server

import (
	"github.com/tournevent/ratebridge/pkg/shipper"
)

// ratesRequest is the facade's JSON request body.
type ratesRequest struct {
	Carrier  string           `json:"carrier,omitempty"`
	ShipFrom addressPayload   `json:"ship_from"`
	ShipTo   addressPayload   `json:"ship_to"`
	Packages []packagePayload `json:"packages"`
}

type addressPayload struct {
	Name          string   `json:"name"`
	Lines         []string `json:"lines"`
	City          string   `json:"city"`
	StateProvince string   `json:"state_province,omitempty"`
	PostalCode    string   `json:"postal_code"`
	CountryCode   string   `json:"country_code"`
}

type packagePayload struct {
	Weight        float64 `json:"weight"`
	WeightUnit    string  `json:"weight_unit"`
	Length        float64 `json:"length"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	DimensionUnit string  `json:"dimension_unit"`
}

type ratesResponse struct {
	Quotes []quotePayload `json:"quotes"`
}

type quotePayload struct {
	Carrier              string   `json:"carrier"`
	ServiceCode          string   `json:"service_code"`
	ServiceName          string   `json:"service_name,omitempty"`
	Amount               float64  `json:"amount"`
	Currency             string   `json:"currency"`
	BaseCharge           *float64 `json:"base_charge,omitempty"`
	TransportationCharge *float64 `json:"transportation_charge,omitempty"`
	Alerts               []string `json:"alerts,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Kind         string `json:"kind,omitempty"`
	Message      string `json:"message"`
	Retryable    bool   `json:"retryable"`
	RetryAfterMs *int64 `json:"retry_after_ms,omitempty"`
}

func (r *ratesRequest) toModel() *shipper.RateRequest {
	packages := make([]shipper.Package, len(r.Packages))
	for i, p := range r.Packages {
		packages[i] = shipper.Package{
			Weight:        p.Weight,
			WeightUnit:    shipper.WeightUnit(p.WeightUnit),
			Length:        p.Length,
			Width:         p.Width,
			Height:        p.Height,
			DimensionUnit: shipper.DimensionUnit(p.DimensionUnit),
		}
	}

	return &shipper.RateRequest{
		ShipFrom: r.ShipFrom.toModel(),
		ShipTo:   r.ShipTo.toModel(),
		Packages: packages,
	}
}

func (a *addressPayload) toModel() shipper.Address {
	return shipper.Address{
		Name:          a.Name,
		Lines:         a.Lines,
		City:          a.City,
		StateProvince: a.StateProvince,
		PostalCode:    a.PostalCode,
		CountryCode:   a.CountryCode,
	}
}

func quotesToPayload(quotes []shipper.RateQuote) []quotePayload {
	result := make([]quotePayload, len(quotes))
	for i, q := range quotes {
		result[i] = quotePayload{
			Carrier:              q.Carrier,
			ServiceCode:          q.ServiceCode,
			ServiceName:          q.ServiceName,
			Amount:               q.Amount,
			Currency:             q.Currency,
			BaseCharge:           q.BaseCharge,
			TransportationCharge: q.TransportationCharge,
			Alerts:               q.Alerts,
		}
	}
	return result
}
