package ups

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/tournevent/ratebridge/pkg/shipper"
)

const (
	// defaultServiceCode selects Ground when the caller does not pick a service.
	defaultServiceCode = "03"
	defaultServiceName = "Ground"

	// defaultCurrency is assumed when the carrier omits a currency code.
	defaultCurrency = "USD"

	packagingTypeCode = "02" // Customer-supplied package.
	billShipperCharge = "01" // Transportation charge billed to the shipper's account.
)

// ============================================================================
// Wire Request Types (match the carrier's rating JSON schema; all numeric
// leaves are decimal strings)
// ============================================================================

type rateRequest struct {
	RateRequest rateRequestBody `json:"RateRequest"`
}

type rateRequestBody struct {
	Request  requestSection `json:"Request"`
	Shipment wireShipment   `json:"Shipment"`
}

type requestSection struct {
	TransactionReference transactionReference `json:"TransactionReference"`
}

type transactionReference struct {
	CustomerContext string `json:"CustomerContext"`
}

type wireShipment struct {
	Shipper        wireParty       `json:"Shipper"`
	ShipTo         wireParty       `json:"ShipTo"`
	ShipFrom       wireParty       `json:"ShipFrom"`
	PaymentDetails paymentDetails  `json:"PaymentDetails"`
	Service        codeDescription `json:"Service"`
	NumOfPieces    string          `json:"NumOfPieces"`
	Package        []wirePackage   `json:"Package"`
}

type wireParty struct {
	Name          string      `json:"Name"`
	ShipperNumber string      `json:"ShipperNumber,omitempty"`
	Address       wireAddress `json:"Address"`
}

type wireAddress struct {
	AddressLine       []string `json:"AddressLine"`
	City              string   `json:"City"`
	StateProvinceCode string   `json:"StateProvinceCode"`
	PostalCode        string   `json:"PostalCode"`
	CountryCode       string   `json:"CountryCode"`
}

type paymentDetails struct {
	ShipmentCharge shipmentCharge `json:"ShipmentCharge"`
}

type shipmentCharge struct {
	Type        string      `json:"Type"`
	BillShipper billShipper `json:"BillShipper"`
}

type billShipper struct {
	AccountNumber string `json:"AccountNumber"`
}

type codeDescription struct {
	Code        string `json:"Code"`
	Description string `json:"Description,omitempty"`
}

type wirePackage struct {
	PackagingType codeDescription   `json:"PackagingType"`
	Dimensions    wireDimensions    `json:"Dimensions"`
	PackageWeight wirePackageWeight `json:"PackageWeight"`
}

type wireDimensions struct {
	UnitOfMeasurement unitOfMeasurement `json:"UnitOfMeasurement"`
	Length            string            `json:"Length"`
	Width             string            `json:"Width"`
	Height            string            `json:"Height"`
}

type wirePackageWeight struct {
	UnitOfMeasurement unitOfMeasurement `json:"UnitOfMeasurement"`
	Weight            string            `json:"Weight"`
}

type unitOfMeasurement struct {
	Code        string `json:"Code"`
	Description string `json:"Description"`
}

// ============================================================================
// Wire Response Types
// ============================================================================

type rateResponse struct {
	RateResponse *rateResponseBody `json:"RateResponse"`
}

type rateResponseBody struct {
	Response      *responseSection `json:"Response"`
	RatedShipment *ratedShipment   `json:"RatedShipment"`
}

type responseSection struct {
	ResponseStatus codeDescription `json:"ResponseStatus"`
	Alert          alertList       `json:"Alert"`
}

type ratedShipment struct {
	Service            codeDescription  `json:"Service"`
	RatedShipmentAlert alertList        `json:"RatedShipmentAlert"`
	TotalCharges       *wireCharge      `json:"TotalCharges"`
	RatedPackage       ratedPackageList `json:"RatedPackage"`
}

type ratedPackage struct {
	BaseServiceCharge     *wireCharge `json:"BaseServiceCharge"`
	TransportationCharges *wireCharge `json:"TransportationCharges"`
	TotalCharges          *wireCharge `json:"TotalCharges"`
	Weight                string      `json:"Weight"`
}

type wireCharge struct {
	CurrencyCode  string `json:"CurrencyCode"`
	MonetaryValue string `json:"MonetaryValue"`
}

type wireAlert struct {
	Code        string `json:"Code"`
	Description string `json:"Description"`
}

// alertList tolerates the carrier sending a single alert object where the
// schema promises an array.
type alertList []wireAlert

func (l *alertList) UnmarshalJSON(data []byte) error {
	var many []wireAlert
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one wireAlert
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = alertList{one}
	return nil
}

// ratedPackageList tolerates the rated-package section arriving as either a
// single object or an array.
type ratedPackageList []ratedPackage

func (l *ratedPackageList) UnmarshalJSON(data []byte) error {
	var many []ratedPackage
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one ratedPackage
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = ratedPackageList{one}
	return nil
}

// ============================================================================
// Mapping: shipper models <-> wire documents
// ============================================================================

var weightUnitNames = map[shipper.WeightUnit]string{
	shipper.WeightLBS: "Pounds",
	shipper.WeightKGS: "Kilograms",
}

var dimensionUnitNames = map[shipper.DimensionUnit]string{
	shipper.DimensionIN: "Inches",
	shipper.DimensionCM: "Centimeters",
}

// formatDecimal serializes a numeric leaf with the input's native precision:
// 25.5 -> "25.5", 10 -> "10".
func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// toWire translates a carrier-agnostic rate request into the carrier's
// rating document. It is pure apart from generating a fresh correlation id;
// input validation is the caller's responsibility.
func toWire(req *shipper.RateRequest, accountNumber string) *rateRequest {
	packages := make([]wirePackage, len(req.Packages))
	for i, p := range req.Packages {
		packages[i] = wirePackage{
			PackagingType: codeDescription{Code: packagingTypeCode, Description: "Packaging"},
			Dimensions: wireDimensions{
				UnitOfMeasurement: unitOfMeasurement{
					Code:        string(p.DimensionUnit),
					Description: dimensionUnitNames[p.DimensionUnit],
				},
				Length: formatDecimal(p.Length),
				Width:  formatDecimal(p.Width),
				Height: formatDecimal(p.Height),
			},
			PackageWeight: wirePackageWeight{
				UnitOfMeasurement: unitOfMeasurement{
					Code:        string(p.WeightUnit),
					Description: weightUnitNames[p.WeightUnit],
				},
				Weight: formatDecimal(p.Weight),
			},
		}
	}

	return &rateRequest{
		RateRequest: rateRequestBody{
			Request: requestSection{
				TransactionReference: transactionReference{
					CustomerContext: uuid.New().String(),
				},
			},
			Shipment: wireShipment{
				Shipper: wireParty{
					Name:          req.ShipFrom.Name,
					ShipperNumber: accountNumber,
					Address:       addressToWire(req.ShipFrom),
				},
				ShipTo: wireParty{
					Name:    req.ShipTo.Name,
					Address: addressToWire(req.ShipTo),
				},
				ShipFrom: wireParty{
					Name:    req.ShipFrom.Name,
					Address: addressToWire(req.ShipFrom),
				},
				PaymentDetails: paymentDetails{
					ShipmentCharge: shipmentCharge{
						Type:        billShipperCharge,
						BillShipper: billShipper{AccountNumber: accountNumber},
					},
				},
				Service:     codeDescription{Code: defaultServiceCode, Description: defaultServiceName},
				NumOfPieces: strconv.Itoa(len(req.Packages)),
				Package:     packages,
			},
		},
	}
}

func addressToWire(a shipper.Address) wireAddress {
	return wireAddress{
		AddressLine:       a.Lines,
		City:              a.City,
		StateProvinceCode: a.StateProvince,
		PostalCode:        a.PostalCode,
		CountryCode:       a.CountryCode,
	}
}

// errMissingRatedShipment signals the carrier omitted the rating envelope
// its schema guarantees.
var errMissingRatedShipment = errors.New("response missing RateResponse.RatedShipment")

// fromWire normalizes the carrier's rate response into carrier-agnostic
// quotes. The rating endpoint prices exactly one shipment per call; the
// slice keeps the contract open for carriers that return more.
func fromWire(resp *rateResponse) ([]shipper.RateQuote, error) {
	if resp == nil || resp.RateResponse == nil || resp.RateResponse.RatedShipment == nil {
		return nil, errMissingRatedShipment
	}

	rated := resp.RateResponse.RatedShipment
	quote := shipper.RateQuote{
		Carrier:     carrierName,
		ServiceCode: rated.Service.Code,
		ServiceName: rated.Service.Description,
		Currency:    defaultCurrency,
	}

	if rated.TotalCharges != nil {
		quote.Amount = parseAmount(rated.TotalCharges.MonetaryValue)
		if rated.TotalCharges.CurrencyCode != "" {
			quote.Currency = rated.TotalCharges.CurrencyCode
		}
	}

	if len(rated.RatedPackage) > 0 {
		pkg := rated.RatedPackage[0]
		if pkg.BaseServiceCharge != nil {
			v := parseAmount(pkg.BaseServiceCharge.MonetaryValue)
			quote.BaseCharge = &v
		}
		if pkg.TransportationCharges != nil {
			v := parseAmount(pkg.TransportationCharges.MonetaryValue)
			quote.TransportationCharge = &v
		}
	}

	// Shipment-level alerts first, then response-level ones.
	var alerts []string
	for _, a := range rated.RatedShipmentAlert {
		if a.Description != "" {
			alerts = append(alerts, a.Description)
		}
	}
	if resp.RateResponse.Response != nil {
		for _, a := range resp.RateResponse.Response.Alert {
			if a.Description != "" {
				alerts = append(alerts, a.Description)
			}
		}
	}
	quote.Alerts = alerts

	return []shipper.RateQuote{quote}, nil
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
