package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductGroup is a sellable item family whose SKUs differ only by variant values.
type ProductGroup struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string           `gorm:"column:name;not null"`
	Slug        string           `gorm:"column:slug;not null;uniqueIndex"`
	Category    string           `gorm:"column:category;not null"`
	Brand       string           `gorm:"column:brand;not null"`
	Description *string          `gorm:"column:description"`
	WeightGrams *int             `gorm:"column:weight"`
	IsActive    bool             `gorm:"column:is_active;not null"`
	IsDeleted   bool             `gorm:"column:is_deleted;not null;default:false"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductGroupID;constraint:OnDelete:CASCADE"`
	Products    []Product        `gorm:"foreignKey:ProductGroupID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
