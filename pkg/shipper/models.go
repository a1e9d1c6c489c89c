package shipper

import (
	"fmt"
)

// WeightUnit represents weight measurement unit.
type WeightUnit string

const (
	WeightLBS WeightUnit = "LBS"
	WeightKGS WeightUnit = "KGS"
)

// DimensionUnit represents dimension measurement unit.
type DimensionUnit string

const (
	DimensionIN DimensionUnit = "IN"
	DimensionCM DimensionUnit = "CM"
)

// Address represents a shipping address.
type Address struct {
	Name          string
	Lines         []string // At least one address line.
	City          string
	StateProvince string // Optional, e.g., "ON", "NY".
	PostalCode    string
	CountryCode   string // ISO 3166-1 alpha-2, e.g., "CA", "US".
}

// Package represents a package to be shipped.
type Package struct {
	Weight        float64
	WeightUnit    WeightUnit
	Length        float64
	Width         float64
	Height        float64
	DimensionUnit DimensionUnit
}

// RateRequest is the request for getting shipping rate quotes.
type RateRequest struct {
	ShipFrom Address
	ShipTo   Address
	Packages []Package
}

// RateQuote is a normalized shipping rate quote from a carrier.
// Amount and Currency are always set; the charge breakdown fields
// are only populated when the carrier provides them.
type RateQuote struct {
	Carrier              string
	ServiceCode          string
	ServiceName          string
	Amount               float64
	Currency             string
	BaseCharge           *float64
	TransportationCharge *float64
	Alerts               []string
}

// Validate checks that the request is complete enough to be rated.
// It returns a validation Error describing the first problem found.
func (r *RateRequest) Validate() error {
	if err := r.ShipFrom.validate("ship_from"); err != nil {
		return err
	}
	if err := r.ShipTo.validate("ship_to"); err != nil {
		return err
	}
	if len(r.Packages) == 0 {
		return NewError("", KindValidation, "at least one package is required")
	}
	for i, p := range r.Packages {
		if p.Weight <= 0 {
			return NewError("", KindValidation, fmt.Sprintf("package %d: weight must be positive", i))
		}
		if p.WeightUnit != WeightLBS && p.WeightUnit != WeightKGS {
			return NewError("", KindValidation, fmt.Sprintf("package %d: unknown weight unit %q", i, p.WeightUnit))
		}
		if p.Length <= 0 || p.Width <= 0 || p.Height <= 0 {
			return NewError("", KindValidation, fmt.Sprintf("package %d: dimensions must be positive", i))
		}
		if p.DimensionUnit != DimensionIN && p.DimensionUnit != DimensionCM {
			return NewError("", KindValidation, fmt.Sprintf("package %d: unknown dimension unit %q", i, p.DimensionUnit))
		}
	}
	return nil
}

func (a *Address) validate(field string) error {
	if len(a.Lines) == 0 {
		return NewError("", KindValidation, field+": at least one address line is required")
	}
	if a.City == "" {
		return NewError("", KindValidation, field+": city is required")
	}
	if a.PostalCode == "" {
		return NewError("", KindValidation, field+": postal code is required")
	}
	if len(a.CountryCode) != 2 {
		return NewError("", KindValidation, field+": country code must be 2 letters")
	}
	return nil
}
