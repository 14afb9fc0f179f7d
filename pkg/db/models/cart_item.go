package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// CartItem is a cart line with the product details captured when it was added.
type CartItem struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID            uuid.UUID               `gorm:"column:cart_id;type:uuid;not null"`
	ProductID         uuid.UUID               `gorm:"column:product_id;type:uuid;not null"`
	Quantity          int                     `gorm:"column:quantity;not null;default:1"`
	VariantSelections types.VariantSelections `gorm:"column:variant_selections;type:jsonb;not null"`
	Price             int                     `gorm:"column:price;not null"`
	Name              string                  `gorm:"column:name;not null"`
	SKU               string                  `gorm:"column:sku;not null"`
	ThumbnailURL      *string                 `gorm:"column:thumbnail_url"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
