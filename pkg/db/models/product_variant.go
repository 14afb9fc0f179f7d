package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant is one axis/value pair of a product group, e.g. Color=Black.
type ProductVariant struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductGroupID uuid.UUID `gorm:"column:product_group_id;type:uuid;not null"`
	Variant        string    `gorm:"column:variant;not null"`
	Value          string    `gorm:"column:value;not null"`
	IsActive       bool      `gorm:"column:is_active;not null"`
	IsDeleted      bool      `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariantCombination links a product to one of its variant values.
type ProductVariantCombination struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
