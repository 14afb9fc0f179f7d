package cart

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes persistence operations for carts and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByOwner loads the owner's cart with items in the order they were added.
func (r *Repository) FindByOwner(ctx context.Context, owner Owner) (*models.Cart, error) {
	query := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		})
	switch {
	case owner.UserID != nil:
		query = query.Where("user_id = ?", *owner.UserID)
	case owner.SessionID != "":
		query = query.Where("session_id = ?", owner.SessionID)
	default:
		return nil, fmt.Errorf("cart owner is empty")
	}

	var cart models.Cart
	if err := query.Order("created_at DESC").First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create inserts a new cart.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("Items").Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// FindItem loads one item scoped to its cart.
func (r *Repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindMatchingItem returns the line for the same product and variant
// selections, or gorm.ErrRecordNotFound.
func (r *Repository) FindMatchingItem(ctx context.Context, cartID, productID uuid.UUID, selections types.VariantSelections) (*models.CartItem, error) {
	var rows []models.CartItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		if sameSelections(rows[i].VariantSelections, selections) {
			return &rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// SaveItem inserts or updates a cart item.
func (r *Repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
		return r.db.WithContext(ctx).Create(item).Error
	}
	return r.db.WithContext(ctx).Save(item).Error
}

// DeleteItem removes a single item from the cart.
func (r *Repository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearItems deletes every item of the cart and reports how many were removed.
func (r *Repository) ClearItems(ctx context.Context, cartID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

func sameSelections(a, b types.VariantSelections) bool {
	if len(a) != len(b) {
		return false
	}
	for axis, value := range a {
		if b[axis] != value {
			return false
		}
	}
	return true
}
