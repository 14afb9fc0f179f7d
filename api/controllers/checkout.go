package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/address"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// GuestCheckout converts the anonymous session's cart into an order, creates
// the customer account and signs the browser in through the token cookie.
func GuestCheckout(svc checkoutsvc.Service, secureCookie bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload guestCheckoutRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.GuestCheckout(r.Context(), checkoutsvc.GuestCheckoutInput{
			SessionID: middleware.SessionIDFromContext(r.Context()),
			Customer: orders.CustomerInput{
				Name:  validators.SanitizeString(payload.FullName, 100),
				Email: strings.TrimSpace(payload.Email),
				Phone: strings.TrimSpace(payload.Phone),
			},
			ShippingAddress: payload.addressInput(),
			Shipping:        shippingInput(payload.SelectedCourier, payload.SelectedService, payload.ShippingCost),
			Notes:           validators.SanitizeString(payload.Notes, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if result.AccessToken != "" {
			http.SetCookie(w, &http.Cookie{
				Name:     middleware.TokenCookie,
				Value:    result.AccessToken,
				Path:     "/",
				Expires:  result.AccessTokenExpiresAt,
				MaxAge:   int(time.Until(result.AccessTokenExpiresAt).Seconds()),
				HttpOnly: true,
				Secure:   secureCookie,
				SameSite: http.SameSiteLaxMode,
			})
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(result))
	}
}

// Checkout converts the signed-in user's cart using one of their saved
// addresses.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), checkoutsvc.CheckoutInput{
			UserID:    userID,
			AddressID: payload.AddressID,
			Shipping:  shippingInput(payload.SelectedCourier, payload.SelectedService, payload.ShippingCost),
			Notes:     validators.SanitizeString(payload.Notes, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(result))
	}
}

type guestCheckoutRequest struct {
	FullName        string `json:"fullName" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required,min=8,max=20"`
	AddressLabel    string `json:"addressLabel" validate:"required,max=50"`
	FullAddress     string `json:"fullAddress" validate:"required,max=500"`
	Village         string `json:"village" validate:"required"`
	District        string `json:"district" validate:"required"`
	City            string `json:"city" validate:"required"`
	Province        string `json:"province" validate:"required"`
	PostalCode      string `json:"postalCode" validate:"required,len=5,numeric"`
	ProvinceCode    string `json:"provinceCode,omitempty"`
	RegencyCode     string `json:"regencyCode,omitempty"`
	DistrictCode    string `json:"districtCode,omitempty"`
	VillageCode     string `json:"villageCode,omitempty"`
	SelectedCourier string `json:"selectedCourier,omitempty"`
	SelectedService string `json:"selectedService,omitempty"`
	ShippingCost    *int   `json:"shippingCost,omitempty" validate:"omitempty,min=0"`
	Notes           string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (p guestCheckoutRequest) addressInput() address.AddressInput {
	return address.AddressInput{
		AddressLabel:  strings.TrimSpace(p.AddressLabel),
		StreetAddress: strings.TrimSpace(p.FullAddress),
		Village:       strings.TrimSpace(p.Village),
		District:      strings.TrimSpace(p.District),
		City:          strings.TrimSpace(p.City),
		State:         strings.TrimSpace(p.Province),
		PostalCode:    strings.TrimSpace(p.PostalCode),
		Country:       "ID",
		ProvinceCode:  strings.TrimSpace(p.ProvinceCode),
		RegencyCode:   strings.TrimSpace(p.RegencyCode),
		DistrictCode:  strings.TrimSpace(p.DistrictCode),
		VillageCode:   strings.TrimSpace(p.VillageCode),
	}
}

type checkoutRequest struct {
	AddressID       uuid.UUID `json:"addressId" validate:"required"`
	SelectedCourier string    `json:"selectedCourier,omitempty"`
	SelectedService string    `json:"selectedService,omitempty"`
	ShippingCost    *int      `json:"shippingCost,omitempty" validate:"omitempty,min=0"`
	Notes           string    `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func shippingInput(courier, service string, cost *int) orders.ShippingInput {
	return orders.ShippingInput{
		Courier: strings.TrimSpace(courier),
		Service: strings.TrimSpace(service),
		Cost:    cost,
	}
}

type checkoutResponse struct {
	OrderID     uuid.UUID                `json:"orderId"`
	OrderNumber string                   `json:"orderNumber"`
	NewUser     bool                     `json:"newUser"`
	Payment     *payments.PaymentSession `json:"payment,omitempty"`
}

func newCheckoutResponse(result *checkoutsvc.Result) checkoutResponse {
	if result == nil {
		return checkoutResponse{}
	}
	return checkoutResponse{
		OrderID:     result.OrderID,
		OrderNumber: result.OrderNumber,
		NewUser:     result.NewUser,
		Payment:     result.Payment,
	}
}
