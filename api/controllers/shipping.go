package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// ShippingCalculate prices the courier services for a destination regency and
// parcel weight. With courier and service set, only that option is returned.
func ShippingCalculate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload shippingCalculateRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		regency := strings.TrimSpace(payload.DestinationRegencyCode)
		if payload.Courier != "" && payload.Service != "" {
			option, err := shipping.Quote(regency, payload.WeightInGrams, payload.Courier, payload.Service)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, []shipping.Option{*option})
			return
		}

		options, err := shipping.Options(regency, payload.WeightInGrams)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, options)
	}
}

type shippingCalculateRequest struct {
	DestinationRegencyCode string `json:"destinationRegencyCode" validate:"required"`
	WeightInGrams          int    `json:"weightInGrams" validate:"required,min=1"`
	Courier                string `json:"courier,omitempty"`
	Service                string `json:"service,omitempty"`
}
