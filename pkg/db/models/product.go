package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a concrete purchasable SKU within a product group.
type Product struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductGroupID uuid.UUID `gorm:"column:product_group_id;type:uuid;not null"`
	SKU            string    `gorm:"column:sku;not null;uniqueIndex"`
	Name           string    `gorm:"column:name;not null"`
	Price          int       `gorm:"column:price;not null"`
	Stock          int       `gorm:"column:stock;not null;default:0"`
	ThumbnailURL   *string   `gorm:"column:thumbnail_url"`
	IsActive       bool      `gorm:"column:is_active;not null"`
	IsDeleted      bool      `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Purchasable reports whether the product can be sold at all.
func (p Product) Purchasable() bool {
	return p.IsActive && !p.IsDeleted
}
