package product

import (
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

// ValidVariantCombinations describes every purchasable configuration of a
// product group.
type ValidVariantCombinations struct {
	VariantTypes    []string                   `json:"variantTypes"`
	AvailabilityMap map[string]map[string]bool `json:"availabilityMap"`
	Combinations    []VariantCombination       `json:"combinations"`
}

// VariantCombination is one product of the group with its axis values.
type VariantCombination struct {
	ProductID uuid.UUID               `json:"productId"`
	SKU       string                  `json:"sku"`
	Variants  types.VariantSelections `json:"variants"`
	Price     int                     `json:"price"`
	Stock     int                     `json:"stock"`
	IsActive  bool                    `json:"isActive"`
}

// ProductDTO is the public view of a single SKU.
type ProductDTO struct {
	ID             uuid.UUID `json:"id"`
	ProductGroupID uuid.UUID `json:"productGroupId"`
	SKU            string    `json:"sku"`
	Name           string    `json:"name"`
	Price          int       `json:"price"`
	Stock          int       `json:"stock"`
	ThumbnailURL   *string   `json:"thumbnailUrl,omitempty"`
	InStock        bool      `json:"inStock"`
}

// NewProductDTO maps a product row to its public view.
func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:             p.ID,
		ProductGroupID: p.ProductGroupID,
		SKU:            p.SKU,
		Name:           p.Name,
		Price:          p.Price,
		Stock:          p.Stock,
		ThumbnailURL:   p.ThumbnailURL,
		InStock:        p.Stock > 0,
	}
}
