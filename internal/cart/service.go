package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart reads, mutations and pre-checkout validation.
type Service interface {
	ValidateItems(ctx context.Context, lines []CartLine) (*ValidationResult, error)
	Get(ctx context.Context, owner Owner) (*models.Cart, error)
	ItemsForSession(ctx context.Context, sessionID string) (*models.Cart, error)
	ItemsForUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, owner Owner, input AddItemInput) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, owner Owner, itemID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, tx *gorm.DB, cartID uuid.UUID, lines int) error
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
	catalog  catalog
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader, catalog catalog) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		catalog:  catalog,
	}, nil
}

// ValidateItems compares every line with the current product row. It only
// reads, so it can be repeated right before the order transaction.
func (s *service) ValidateItems(ctx context.Context, lines []CartLine) (*ValidationResult, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	current, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}

	result := &ValidationResult{Errors: []ValidationError{}}
	for _, line := range lines {
		product, ok := current[line.ProductID]
		name := line.Name
		if ok && product.Name != "" {
			name = product.Name
		}

		if !ok || !product.Purchasable() {
			result.Errors = append(result.Errors, ValidationError{
				Type:      enums.CartErrorProductUnavailable,
				Message:   fmt.Sprintf("%s is no longer available", displayName(name)),
				ProductID: line.ProductID,
			})
			continue
		}
		if product.Stock < line.Quantity {
			result.Errors = append(result.Errors, ValidationError{
				Type:      enums.CartErrorOutOfStock,
				Message:   fmt.Sprintf("%s only has %d left in stock", displayName(name), product.Stock),
				ProductID: line.ProductID,
			})
		}
		if product.Price != line.Price {
			result.Errors = append(result.Errors, ValidationError{
				Type:      enums.CartErrorPriceChanged,
				Message:   fmt.Sprintf("price of %s changed from %d to %d", displayName(name), line.Price, product.Price),
				ProductID: line.ProductID,
			})
		}
	}
	result.Valid = len(result.Errors) == 0
	return result, nil
}

// Get returns the owner's cart, or an empty cart when none exists yet.
func (s *service) Get(ctx context.Context, owner Owner) (*models.Cart, error) {
	if owner.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Cart{Items: []models.CartItem{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) ItemsForSession(ctx context.Context, sessionID string) (*models.Cart, error) {
	return s.Get(ctx, SessionOwner(sessionID))
}

func (s *service) ItemsForUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.Get(ctx, UserOwner(userID))
}

// AddItem puts a product into the cart, merging with an existing line for the
// same product and variant selections. Price, name and SKU are captured now.
func (s *service) AddItem(ctx context.Context, owner Owner, input AddItemInput) (*models.Cart, error) {
	if owner.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.catalog.GetProduct(ctx, input.ProductID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
		}
		return nil, err
	}
	if !product.Purchasable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	if err := s.catalog.ValidateSelection(ctx, product, input.VariantSelections); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.findOrCreate(ctx, repo, owner)
		if err != nil {
			return err
		}

		item, err := repo.FindMatchingItem(ctx, cart.ID, product.ID, input.VariantSelections)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = &models.CartItem{
				CartID:            cart.ID,
				ProductID:         product.ID,
				VariantSelections: input.VariantSelections,
			}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		quantity := item.Quantity + input.Quantity
		if product.Stock < quantity {
			return insufficientStock(product)
		}
		item.Quantity = quantity
		captureProduct(item, product)
		if err := repo.SaveItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
		}
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "add cart item")
	}
	return s.Get(ctx, owner)
}

// UpdateItemQuantity replaces the quantity of one line.
func (s *service) UpdateItemQuantity(ctx context.Context, owner Owner, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	_, item, err := s.loadItem(ctx, owner, itemID)
	if err != nil {
		return nil, err
	}

	product, err := s.catalog.GetProduct(ctx, item.ProductID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
		}
		return nil, err
	}
	if !product.Purchasable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	if product.Stock < quantity {
		return nil, insufficientStock(product)
	}

	item.Quantity = quantity
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
	}
	return s.Get(ctx, owner)
}

// RemoveItem deletes one line from the cart.
func (s *service) RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*models.Cart, error) {
	cart, _, err := s.loadItem(ctx, owner, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	return s.Get(ctx, owner)
}

// Clear deletes every item of the cart inside the caller's transaction. The
// cart must hold exactly the expected number of lines, otherwise it changed
// after the order was priced and the caller's transaction has to roll back.
func (s *service) Clear(ctx context.Context, tx *gorm.DB, cartID uuid.UUID, lines int) error {
	if cartID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	removed, err := s.repo.WithTx(tx).ClearItems(ctx, cartID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	if removed != int64(lines) {
		return pkgerrors.New(pkgerrors.CodeConflict, "cart changed during checkout").
			WithDetails(map[string]any{"expected": lines, "removed": removed})
	}
	return nil
}

func (s *service) findOrCreate(ctx context.Context, repo CartRepository, owner Owner) (*models.Cart, error) {
	cart, err := repo.FindByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	fresh := &models.Cart{UserID: owner.UserID}
	if owner.UserID == nil {
		sessionID := owner.SessionID
		fresh.SessionID = &sessionID
	}
	created, err := repo.Create(ctx, fresh)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

func (s *service) loadItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*models.Cart, *models.CartItem, error) {
	if owner.empty() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	item, err := s.repo.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	return cart, item, nil
}

func captureProduct(item *models.CartItem, product *models.Product) {
	item.Price = product.Price
	item.Name = product.Name
	item.SKU = product.SKU
	item.ThumbnailURL = product.ThumbnailURL
}

func insufficientStock(product *models.Product) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
		WithDetails(map[string]any{"productId": product.ID, "available": product.Stock})
}

func displayName(name string) string {
	if name == "" {
		return "product"
	}
	return name
}

func asTyped(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
