package ups

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/ratebridge/pkg/shipper"
)

func testRateRequest(packages ...shipper.Package) *shipper.RateRequest {
	return &shipper.RateRequest{
		ShipFrom: shipper.Address{
			Name:          "Acme Warehouse",
			Lines:         []string{"100 Industrial Ave"},
			City:          "Louisville",
			StateProvince: "KY",
			PostalCode:    "40201",
			CountryCode:   "US",
		},
		ShipTo: shipper.Address{
			Name:        "Jane Smith",
			Lines:       []string{"456 Oak Ave", "Unit 2"},
			City:        "Portland",
			PostalCode:  "97201",
			CountryCode: "US",
		},
		Packages: packages,
	}
}

func TestToWire_PackageCount(t *testing.T) {
	req := testRateRequest(
		shipper.Package{Weight: 5, WeightUnit: shipper.WeightLBS, Length: 10, Width: 8, Height: 6, DimensionUnit: shipper.DimensionIN},
		shipper.Package{Weight: 3, WeightUnit: shipper.WeightLBS, Length: 12, Width: 10, Height: 8, DimensionUnit: shipper.DimensionIN},
		shipper.Package{Weight: 7, WeightUnit: shipper.WeightKGS, Length: 25, Width: 20, Height: 15, DimensionUnit: shipper.DimensionCM},
	)

	wire := toWire(req, "A1B2C3")

	shipment := wire.RateRequest.Shipment
	assert.Len(t, shipment.Package, 3)
	assert.Equal(t, "3", shipment.NumOfPieces)

	// Per-package units survive the mapping.
	assert.Equal(t, "LBS", shipment.Package[0].PackageWeight.UnitOfMeasurement.Code)
	assert.Equal(t, "Pounds", shipment.Package[0].PackageWeight.UnitOfMeasurement.Description)
	assert.Equal(t, "IN", shipment.Package[1].Dimensions.UnitOfMeasurement.Code)
	assert.Equal(t, "KGS", shipment.Package[2].PackageWeight.UnitOfMeasurement.Code)
	assert.Equal(t, "Kilograms", shipment.Package[2].PackageWeight.UnitOfMeasurement.Description)
	assert.Equal(t, "CM", shipment.Package[2].Dimensions.UnitOfMeasurement.Code)
	assert.Equal(t, "Centimeters", shipment.Package[2].Dimensions.UnitOfMeasurement.Description)
}

func TestToWire_DecimalFormatting(t *testing.T) {
	req := testRateRequest(
		shipper.Package{Weight: 25.5, WeightUnit: shipper.WeightLBS, Length: 10, Width: 8.25, Height: 6, DimensionUnit: shipper.DimensionIN},
	)

	wire := toWire(req, "A1B2C3")

	pkg := wire.RateRequest.Shipment.Package[0]
	assert.Equal(t, "25.5", pkg.PackageWeight.Weight)
	assert.Equal(t, "10", pkg.Dimensions.Length)
	assert.Equal(t, "8.25", pkg.Dimensions.Width)
	assert.Equal(t, "6", pkg.Dimensions.Height)
}

func TestToWire_ShipperAndPayment(t *testing.T) {
	req := testRateRequest(
		shipper.Package{Weight: 1, WeightUnit: shipper.WeightKGS, Length: 1, Width: 1, Height: 1, DimensionUnit: shipper.DimensionCM},
	)

	wire := toWire(req, "A1B2C3")

	body := wire.RateRequest
	assert.NotEmpty(t, body.Request.TransactionReference.CustomerContext)

	shipment := body.Shipment
	assert.Equal(t, "Acme Warehouse", shipment.Shipper.Name)
	assert.Equal(t, "A1B2C3", shipment.Shipper.ShipperNumber)
	assert.Equal(t, "A1B2C3", shipment.PaymentDetails.ShipmentCharge.BillShipper.AccountNumber)
	assert.Equal(t, "01", shipment.PaymentDetails.ShipmentCharge.Type)
	assert.Equal(t, "03", shipment.Service.Code)

	// ShipTo has no state/province; the wire field stays an empty string.
	assert.Equal(t, "", shipment.ShipTo.Address.StateProvinceCode)
	assert.Equal(t, "KY", shipment.ShipFrom.Address.StateProvinceCode)
	assert.Equal(t, []string{"456 Oak Ave", "Unit 2"}, shipment.ShipTo.Address.AddressLine)
}

func TestToWire_FreshCorrelationIDPerCall(t *testing.T) {
	req := testRateRequest(
		shipper.Package{Weight: 1, WeightUnit: shipper.WeightKGS, Length: 1, Width: 1, Height: 1, DimensionUnit: shipper.DimensionCM},
	)

	first := toWire(req, "A1B2C3").RateRequest.Request.TransactionReference.CustomerContext
	second := toWire(req, "A1B2C3").RateRequest.Request.TransactionReference.CustomerContext
	assert.NotEqual(t, first, second)
}

func TestFromWire_MissingEnvelope(t *testing.T) {
	for _, raw := range []string{`{}`, `{"RateResponse": {}}`, `{"RateResponse": {"Response": {}}}`} {
		var resp rateResponse
		require.NoError(t, json.Unmarshal([]byte(raw), &resp))

		_, err := fromWire(&resp)
		assert.ErrorIs(t, err, errMissingRatedShipment, "payload: %s", raw)
	}
}

func TestFromWire_Success(t *testing.T) {
	raw := `{
		"RateResponse": {
			"Response": {"ResponseStatus": {"Code": "1", "Description": "Success"}},
			"RatedShipment": {
				"Service": {"Code": "03", "Description": "Ground"},
				"TotalCharges": {"CurrencyCode": "USD", "MonetaryValue": "15.54"}
			}
		}
	}`

	var resp rateResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	quotes, err := fromWire(&resp)
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	quote := quotes[0]
	assert.Equal(t, "ups", quote.Carrier)
	assert.Equal(t, "03", quote.ServiceCode)
	assert.Equal(t, "Ground", quote.ServiceName)
	assert.Equal(t, 15.54, quote.Amount)
	assert.Equal(t, "USD", quote.Currency)
	assert.Nil(t, quote.BaseCharge)
	assert.Nil(t, quote.TransportationCharge)
	assert.Nil(t, quote.Alerts)
}

func TestFromWire_Defaults(t *testing.T) {
	raw := `{"RateResponse": {"RatedShipment": {}}}`

	var resp rateResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	quotes, err := fromWire(&resp)
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	assert.Equal(t, "", quotes[0].ServiceCode)
	assert.Equal(t, 0.0, quotes[0].Amount)
	assert.Equal(t, "USD", quotes[0].Currency)
}

func TestFromWire_RatedPackageObject(t *testing.T) {
	raw := `{
		"RateResponse": {
			"RatedShipment": {
				"Service": {"Code": "03"},
				"TotalCharges": {"CurrencyCode": "CAD", "MonetaryValue": "30.00"},
				"RatedPackage": {
					"BaseServiceCharge": {"CurrencyCode": "CAD", "MonetaryValue": "21.10"},
					"TransportationCharges": {"CurrencyCode": "CAD", "MonetaryValue": "24.30"}
				}
			}
		}
	}`

	var resp rateResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	quotes, err := fromWire(&resp)
	require.NoError(t, err)

	require.NotNil(t, quotes[0].BaseCharge)
	require.NotNil(t, quotes[0].TransportationCharge)
	assert.Equal(t, 21.10, *quotes[0].BaseCharge)
	assert.Equal(t, 24.30, *quotes[0].TransportationCharge)
	assert.Equal(t, "CAD", quotes[0].Currency)
}

func TestFromWire_RatedPackageArrayUsesFirstEntry(t *testing.T) {
	raw := `{
		"RateResponse": {
			"RatedShipment": {
				"Service": {"Code": "03"},
				"TotalCharges": {"MonetaryValue": "30.00"},
				"RatedPackage": [
					{"BaseServiceCharge": {"MonetaryValue": "11.00"}},
					{"BaseServiceCharge": {"MonetaryValue": "99.99"}}
				]
			}
		}
	}`

	var resp rateResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	quotes, err := fromWire(&resp)
	require.NoError(t, err)

	require.NotNil(t, quotes[0].BaseCharge)
	assert.Equal(t, 11.00, *quotes[0].BaseCharge)
	assert.Nil(t, quotes[0].TransportationCharge)
}

func TestFromWire_AlertsShipmentFirstThenResponse(t *testing.T) {
	raw := `{
		"RateResponse": {
			"Response": {
				"Alert": [{"Code": "110971", "Description": "Your invoice may vary"}]
			},
			"RatedShipment": {
				"Service": {"Code": "03"},
				"TotalCharges": {"MonetaryValue": "10.00"},
				"RatedShipmentAlert": {"Code": "120900", "Description": "Address classified as commercial"}
			}
		}
	}`

	var resp rateResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	quotes, err := fromWire(&resp)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Address classified as commercial",
		"Your invoice may vary",
	}, quotes[0].Alerts)
}

func TestFormatDecimal(t *testing.T) {
	assert.Equal(t, "25.5", formatDecimal(25.5))
	assert.Equal(t, "10", formatDecimal(10))
	assert.Equal(t, "0.125", formatDecimal(0.125))
}
