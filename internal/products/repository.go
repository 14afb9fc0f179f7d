package product

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository is the read side of the inventory used by the variant
// engine, cart and checkout.
type CatalogRepository interface {
	FindGroup(context.Context, uuid.UUID) (*models.ProductGroup, error)
	ListGroupVariants(context.Context, uuid.UUID) ([]models.ProductVariant, error)
	ListGroupProducts(context.Context, uuid.UUID) ([]ProductWithVariants, error)
	FindByID(context.Context, uuid.UUID) (*models.Product, error)
	FindByIDs(context.Context, []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// ProductWithVariants pairs a product with its axis→value map.
type ProductWithVariants struct {
	Product  models.Product
	Variants types.VariantSelections
}

type combinationRow struct {
	ProductID uuid.UUID `gorm:"column:product_id"`
	Variant   string    `gorm:"column:variant"`
	Value     string    `gorm:"column:value"`
}

const groupCombinationsQuery = `
SELECT pvc.product_id, pv.variant, pv.value
FROM product_variant_combinations pvc
JOIN product_variants pv ON pv.id = pvc.variant_id
JOIN products p ON p.id = pvc.product_id
WHERE p.product_group_id = ?
  AND pv.is_deleted = ?
ORDER BY pvc.created_at ASC, pvc.id ASC
`

// Repository wires together the catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindGroup loads a non-deleted product group.
func (r *Repository) FindGroup(ctx context.Context, id uuid.UUID) (*models.ProductGroup, error) {
	var group models.ProductGroup
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// ListGroupVariants returns the active axis/value rows of a group.
func (r *Repository) ListGroupVariants(ctx context.Context, groupID uuid.UUID) ([]models.ProductVariant, error) {
	var rows []models.ProductVariant
	err := r.db.WithContext(ctx).
		Where("product_group_id = ? AND is_active = ? AND is_deleted = ?", groupID, true, false).
		Order("variant ASC").
		Order("value ASC").
		Find(&rows).
		Error
	return rows, err
}

// ListGroupProducts returns the active, non-deleted products of a group in
// insertion order, each with its variant map.
func (r *Repository) ListGroupProducts(ctx context.Context, groupID uuid.UUID) ([]ProductWithVariants, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("product_group_id = ? AND is_active = ? AND is_deleted = ?", groupID, true, false).
		Order("created_at ASC").
		Order("id ASC").
		Find(&products).
		Error; err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return []ProductWithVariants{}, nil
	}

	var rows []combinationRow
	if err := r.db.WithContext(ctx).Raw(groupCombinationsQuery, groupID, false).Scan(&rows).Error; err != nil {
		return nil, err
	}
	byProduct := make(map[uuid.UUID]types.VariantSelections, len(products))
	for _, row := range rows {
		selections, ok := byProduct[row.ProductID]
		if !ok {
			selections = types.VariantSelections{}
			byProduct[row.ProductID] = selections
		}
		// first row per axis wins when combination data is duplicated
		if _, seen := selections[row.Variant]; !seen {
			selections[row.Variant] = row.Value
		}
	}

	out := make([]ProductWithVariants, 0, len(products))
	for _, product := range products {
		variants := byProduct[product.ID]
		if variants == nil {
			variants = types.VariantSelections{}
		}
		out = append(out, ProductWithVariants{Product: product, Variants: variants})
	}
	return out, nil
}

// FindByID loads the product without associations, including inactive and
// soft-deleted rows.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads the products keyed by id. Missing ids are absent from the map.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// DecrementStock removes qty units when at least qty are on hand. It reports
// false when the guard matched no row.
func (r *Repository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
