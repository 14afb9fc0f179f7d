package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem snapshots a product at purchase time. ProductID is nulled when the
// product is removed from the catalog.
type OrderItem struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	ProductID   *uuid.UUID `gorm:"column:product_id;type:uuid"`
	ProductName string     `gorm:"column:product_name;not null"`
	ProductSKU  string     `gorm:"column:product_sku;not null"`
	ImageURL    *string    `gorm:"column:image_url"`
	Quantity    int        `gorm:"column:quantity;not null"`
	UnitPrice   int        `gorm:"column:unit_price;not null"`
	Subtotal    int        `gorm:"column:subtotal;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
