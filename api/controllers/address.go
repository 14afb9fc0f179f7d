package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/address"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// AddressList returns the caller's saved addresses, default first.
func AddressList(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.List(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"addresses": list})
	}
}

// AddressCreate saves a new address for the caller.
func AddressCreate(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload addressRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := svc.Create(ctx, userID, payload.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// AddressSetDefault makes one of the caller's addresses the default.
func AddressSetDefault(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		addressID, err := parseUUIDParam(r, "addressId", "address id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		updated, err := svc.SetDefault(ctx, userID, addressID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// AddressDelete removes one of the caller's addresses.
func AddressDelete(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		addressID, err := parseUUIDParam(r, "addressId", "address id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, userID, addressID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type addressRequest struct {
	AddressLabel  string `json:"addressLabel" validate:"required,max=50"`
	StreetAddress string `json:"streetAddress" validate:"required,max=500"`
	Village       string `json:"village" validate:"required"`
	District      string `json:"district" validate:"required"`
	City          string `json:"city" validate:"required"`
	State         string `json:"state" validate:"required"`
	PostalCode    string `json:"postalCode" validate:"required,len=5,numeric"`
	Country       string `json:"country,omitempty" validate:"omitempty,len=2"`
	ProvinceCode  string `json:"provinceCode,omitempty"`
	RegencyCode   string `json:"regencyCode,omitempty"`
	DistrictCode  string `json:"districtCode,omitempty"`
	VillageCode   string `json:"villageCode,omitempty"`
	IsDefault     bool   `json:"isDefault,omitempty"`
}

func (p addressRequest) toInput() address.AddressInput {
	country := strings.ToUpper(strings.TrimSpace(p.Country))
	if country == "" {
		country = "ID"
	}
	return address.AddressInput{
		AddressLabel:  strings.TrimSpace(p.AddressLabel),
		StreetAddress: strings.TrimSpace(p.StreetAddress),
		Village:       strings.TrimSpace(p.Village),
		District:      strings.TrimSpace(p.District),
		City:          strings.TrimSpace(p.City),
		State:         strings.TrimSpace(p.State),
		PostalCode:    strings.TrimSpace(p.PostalCode),
		Country:       country,
		ProvinceCode:  strings.TrimSpace(p.ProvinceCode),
		RegencyCode:   strings.TrimSpace(p.RegencyCode),
		DistrictCode:  strings.TrimSpace(p.DistrictCode),
		VillageCode:   strings.TrimSpace(p.VillageCode),
		IsDefault:     p.IsDefault,
	}
}
