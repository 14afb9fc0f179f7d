package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is an entry of a user's address book.
type Address struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	AddressLabel  string    `gorm:"column:address_label;not null"`
	StreetAddress string    `gorm:"column:street_address;not null"`
	Village       string    `gorm:"column:village;not null"`
	District      string    `gorm:"column:district;not null"`
	City          string    `gorm:"column:city;not null"`
	State         string    `gorm:"column:state;not null"`
	PostalCode    string    `gorm:"column:postal_code;not null"`
	Country       string    `gorm:"column:country;not null;default:'ID'"`
	ProvinceCode  *string   `gorm:"column:province_code"`
	RegencyCode   *string   `gorm:"column:regency_code"`
	DistrictCode  *string   `gorm:"column:district_code"`
	VillageCode   *string   `gorm:"column:village_code"`
	IsDefault     bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
