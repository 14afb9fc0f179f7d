package cart

import (
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Owner identifies whose cart is addressed: a signed-in user or an anonymous
// browser session.
type Owner struct {
	UserID    *uuid.UUID
	SessionID string
}

// UserOwner addresses the cart of a signed-in user.
func UserOwner(userID uuid.UUID) Owner {
	return Owner{UserID: &userID}
}

// SessionOwner addresses the cart of an anonymous session.
func SessionOwner(sessionID string) Owner {
	return Owner{SessionID: sessionID}
}

func (o Owner) empty() bool {
	return (o.UserID == nil || *o.UserID == uuid.Nil) && o.SessionID == ""
}

// CartLine is the part of a cart item that is checked against inventory.
type CartLine struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
	Price     int
}

// LinesFromItems projects stored cart items to validation lines.
func LinesFromItems(items []models.CartItem) []CartLine {
	lines := make([]CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, CartLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return lines
}

// ValidationError describes one problem found on a cart line.
type ValidationError struct {
	Type      enums.CartValidationErrorType `json:"type"`
	Message   string                        `json:"message"`
	ProductID uuid.UUID                     `json:"productId"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationResult is valid only when no line reported an error.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors"`
}

// Err converts a failed result into a validation error carrying every line
// problem in its details.
func (r *ValidationResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	var combined error
	for _, e := range r.Errors {
		combined = multierr.Append(combined, e)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, combined, "cart validation failed").
		WithDetails(map[string]any{"errors": r.Errors})
}

// AddItemInput is the payload to put a product into a cart.
type AddItemInput struct {
	ProductID         uuid.UUID
	Quantity          int
	VariantSelections types.VariantSelections
}

// CartDTO is the public view of a cart.
type CartDTO struct {
	ID        *uuid.UUID    `json:"id,omitempty"`
	Items     []CartItemDTO `json:"items"`
	ItemCount int           `json:"itemCount"`
	Subtotal  int           `json:"subtotal"`
}

// CartItemDTO is the public view of a cart line.
type CartItemDTO struct {
	ID                uuid.UUID               `json:"id"`
	ProductID         uuid.UUID               `json:"productId"`
	Name              string                  `json:"name"`
	SKU               string                  `json:"sku"`
	Price             int                     `json:"price"`
	Quantity          int                     `json:"quantity"`
	Subtotal          int                     `json:"subtotal"`
	ThumbnailURL      *string                 `json:"thumbnailUrl,omitempty"`
	VariantSelections types.VariantSelections `json:"variantSelections"`
}

// NewCartDTO maps a cart row to its public view.
func NewCartDTO(c *models.Cart) *CartDTO {
	dto := &CartDTO{Items: []CartItemDTO{}}
	if c == nil {
		return dto
	}
	if c.ID != uuid.Nil {
		id := c.ID
		dto.ID = &id
	}
	for _, item := range c.Items {
		line := item.Price * item.Quantity
		dto.Items = append(dto.Items, CartItemDTO{
			ID:                item.ID,
			ProductID:         item.ProductID,
			Name:              item.Name,
			SKU:               item.SKU,
			Price:             item.Price,
			Quantity:          item.Quantity,
			Subtotal:          line,
			ThumbnailURL:      item.ThumbnailURL,
			VariantSelections: item.VariantSelections,
		})
		dto.ItemCount += item.Quantity
		dto.Subtotal += line
	}
	return dto
}
