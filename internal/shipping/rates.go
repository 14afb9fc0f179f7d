package shipping

import (
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const gramsPerKilo = 1000

// Option is one courier service with its cost for a shipment.
type Option struct {
	CourierID   string `json:"courierId"`
	CourierName string `json:"courierName"`
	ServiceCode string `json:"serviceCode"`
	ServiceName string `json:"serviceName"`
	Cost        int    `json:"cost"`
	ETD         string `json:"etd"`
}

// flatRates holds the per-kilogram price of every supported service.
var flatRates = []Option{
	{CourierID: "jne", CourierName: "JNE", ServiceCode: "REG", ServiceName: "Reguler", Cost: 15000, ETD: "2-3 Hari"},
	{CourierID: "jne", CourierName: "JNE", ServiceCode: "YES", ServiceName: "Yakin Esok Sampai", Cost: 25000, ETD: "1 Hari"},
	{CourierID: "sicepat", CourierName: "SiCepat", ServiceCode: "REG", ServiceName: "Reguler", Cost: 12000, ETD: "2-3 Hari"},
	{CourierID: "sicepat", CourierName: "SiCepat", ServiceCode: "BEST", ServiceName: "Besok Sampai Tujuan", Cost: 22000, ETD: "1 Hari"},
	{CourierID: "jnt", CourierName: "J&T Express", ServiceCode: "EZ", ServiceName: "Express", Cost: 14000, ETD: "2-3 Hari"},
}

// Options prices every service for a parcel of weightGrams sent to the
// regency. Each started kilogram is charged in full.
func Options(destinationRegencyCode string, weightGrams int) ([]Option, error) {
	if strings.TrimSpace(destinationRegencyCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination regency code is required")
	}
	if weightGrams <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight must be greater than zero")
	}
	multiplier := (weightGrams + gramsPerKilo - 1) / gramsPerKilo

	out := make([]Option, 0, len(flatRates))
	for _, rate := range flatRates {
		rate.Cost *= multiplier
		out = append(out, rate)
	}
	return out, nil
}

// Quote returns the priced option matching a courier (id or display name) and
// service code.
func Quote(destinationRegencyCode string, weightGrams int, courier, serviceCode string) (*Option, error) {
	options, err := Options(destinationRegencyCode, weightGrams)
	if err != nil {
		return nil, err
	}
	courier = strings.TrimSpace(courier)
	serviceCode = strings.TrimSpace(serviceCode)
	for i := range options {
		opt := options[i]
		if (strings.EqualFold(opt.CourierID, courier) || strings.EqualFold(opt.CourierName, courier)) &&
			strings.EqualFold(opt.ServiceCode, serviceCode) {
			return &opt, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping service not available").
		WithDetails(map[string]any{"courier": courier, "service": serviceCode})
}
