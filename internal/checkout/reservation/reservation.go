package reservation

import (
	"context"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryReservationRequest asks for Qty units of a product on behalf of a
// cart line.
type InventoryReservationRequest struct {
	CartItemID uuid.UUID
	ProductID  uuid.UUID
	Qty        int
}

// InventoryReservationResult reports whether a request found enough stock.
type InventoryReservationResult struct {
	CartItemID uuid.UUID
	ProductID  uuid.UUID
	Qty        int
	Reserved   bool
	Reason     string
}

// ReserveInventory takes stock for each request on tx with a guarded
// decrement, so concurrent checkouts can never drive stock below zero.
// Requests are applied in order; units taken by earlier requests stay taken
// until tx rolls back.
func ReserveInventory(ctx context.Context, tx *gorm.DB, requests []InventoryReservationRequest) ([]InventoryReservationResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	for _, req := range requests {
		if req.ProductID == uuid.Nil || req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation requires a product and a positive quantity")
		}
	}

	repo := product.NewRepository(tx)
	results := make([]InventoryReservationResult, 0, len(requests))
	for _, req := range requests {
		ok, err := repo.DecrementStock(ctx, req.ProductID, req.Qty)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve inventory")
		}
		result := InventoryReservationResult{
			CartItemID: req.CartItemID,
			ProductID:  req.ProductID,
			Qty:        req.Qty,
			Reserved:   ok,
		}
		if !ok {
			result.Reason = "insufficient stock"
		}
		results = append(results, result)
	}
	return results, nil
}

// Unreserved returns the results that could not be satisfied.
func Unreserved(results []InventoryReservationResult) []InventoryReservationResult {
	var out []InventoryReservationResult
	for _, r := range results {
		if !r.Reserved {
			out = append(out, r)
		}
	}
	return out
}
