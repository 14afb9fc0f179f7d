package address

import (
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

// AddressInput holds the fields of an address book entry.
type AddressInput struct {
	AddressLabel  string
	StreetAddress string
	Village       string
	District      string
	City          string
	State         string
	PostalCode    string
	Country       string
	ProvinceCode  string
	RegencyCode   string
	DistrictCode  string
	VillageCode   string
	IsDefault     bool
}

// CheckoutAddressInput is the shipping address captured by a checkout that
// should be remembered for the new user.
type CheckoutAddressInput struct {
	UserID uuid.UUID
	AddressInput
}

// AddressDTO is the public view of a saved address.
type AddressDTO struct {
	ID            uuid.UUID `json:"id"`
	AddressLabel  string    `json:"addressLabel"`
	StreetAddress string    `json:"streetAddress"`
	Village       string    `json:"village"`
	District      string    `json:"district"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	PostalCode    string    `json:"postalCode"`
	Country       string    `json:"country"`
	ProvinceCode  *string   `json:"provinceCode,omitempty"`
	RegencyCode   *string   `json:"regencyCode,omitempty"`
	DistrictCode  *string   `json:"districtCode,omitempty"`
	VillageCode   *string   `json:"villageCode,omitempty"`
	IsDefault     bool      `json:"isDefault"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FromModel maps an address row to its public view.
func FromModel(a *models.Address) *AddressDTO {
	if a == nil {
		return nil
	}
	return &AddressDTO{
		ID:            a.ID,
		AddressLabel:  a.AddressLabel,
		StreetAddress: a.StreetAddress,
		Village:       a.Village,
		District:      a.District,
		City:          a.City,
		State:         a.State,
		PostalCode:    a.PostalCode,
		Country:       a.Country,
		ProvinceCode:  a.ProvinceCode,
		RegencyCode:   a.RegencyCode,
		DistrictCode:  a.DistrictCode,
		VillageCode:   a.VillageCode,
		IsDefault:     a.IsDefault,
		CreatedAt:     a.CreatedAt,
	}
}

// Snapshot freezes a saved address for an order.
func Snapshot(a *models.Address, phone string) types.AddressSnapshot {
	return types.AddressSnapshot{
		AddressLabel: a.AddressLabel,
		Phone:        phone,
		FullAddress:  a.StreetAddress,
		Village:      a.Village,
		District:     a.District,
		City:         a.City,
		Province:     a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
		ProvinceCode: deref(a.ProvinceCode),
		RegencyCode:  deref(a.RegencyCode),
		DistrictCode: deref(a.DistrictCode),
		VillageCode:  deref(a.VillageCode),
	}
}

func (in AddressInput) toModel(userID uuid.UUID) *models.Address {
	country := strings.ToUpper(strings.TrimSpace(in.Country))
	if country == "" {
		country = "ID"
	}
	return &models.Address{
		UserID:        userID,
		AddressLabel:  strings.TrimSpace(in.AddressLabel),
		StreetAddress: strings.TrimSpace(in.StreetAddress),
		Village:       strings.TrimSpace(in.Village),
		District:      strings.TrimSpace(in.District),
		City:          strings.TrimSpace(in.City),
		State:         strings.TrimSpace(in.State),
		PostalCode:    strings.TrimSpace(in.PostalCode),
		Country:       country,
		ProvinceCode:  optional(in.ProvinceCode),
		RegencyCode:   optional(in.RegencyCode),
		DistrictCode:  optional(in.DistrictCode),
		VillageCode:   optional(in.VillageCode),
	}
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
