package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type cartManager interface {
	Get(ctx context.Context, owner cartsvc.Owner) (*models.Cart, error)
	AddItem(ctx context.Context, owner cartsvc.Owner, input cartsvc.AddItemInput) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, owner cartsvc.Owner, itemID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, owner cartsvc.Owner, itemID uuid.UUID) (*models.Cart, error)
	ValidateItems(ctx context.Context, lines []cartsvc.CartLine) (*cartsvc.ValidationResult, error)
}

// CartFetch returns the caller's cart: the user's when signed in, otherwise
// the anonymous session's.
func CartFetch(svc cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := svc.Get(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartsvc.NewCartDTO(c))
	}
}

// CartAddItem puts a product into the caller's cart, merging with an
// existing line for the same variant.
func CartAddItem(svc cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := svc.AddItem(r.Context(), owner, cartsvc.AddItemInput{
			ProductID:         payload.ProductID,
			Quantity:          payload.Quantity,
			VariantSelections: payload.VariantSelections,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cartsvc.NewCartDTO(c))
	}
}

type addCartItemRequest struct {
	ProductID         uuid.UUID               `json:"productId" validate:"required"`
	Quantity          int                     `json:"quantity" validate:"required,min=1,max=999"`
	VariantSelections types.VariantSelections `json:"variantSelections,omitempty"`
}

// CartUpdateItem sets the quantity of one cart line.
func CartUpdateItem(svc cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := parseUUIDParam(r, "itemId", "cart item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := svc.UpdateItemQuantity(r.Context(), owner, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartsvc.NewCartDTO(c))
	}
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=999"`
}

// CartRemoveItem drops one line from the caller's cart.
func CartRemoveItem(svc cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := parseUUIDParam(r, "itemId", "cart item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := svc.RemoveItem(r.Context(), owner, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartsvc.NewCartDTO(c))
	}
}

// CartValidate checks the caller's cart against the live catalog. An invalid
// cart is a successful response carrying the per-line problems.
func CartValidate(svc cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := svc.Get(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var items []models.CartItem
		if c != nil {
			items = c.Items
		}

		result, err := svc.ValidateItems(r.Context(), cartsvc.LinesFromItems(items))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
