package reservation

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func seedProduct(t *testing.T, db *gorm.DB, sku string, stock int) uuid.UUID {
	t.Helper()
	group := models.ProductGroup{
		ID:       uuid.New(),
		Name:     "Kaos " + sku,
		Slug:     "kaos-" + sku,
		Category: "apparel",
		Brand:    "Lokal",
		IsActive: true,
	}
	if err := db.Create(&group).Error; err != nil {
		t.Fatalf("seed group: %v", err)
	}
	product := models.Product{
		ID:             uuid.New(),
		ProductGroupID: group.ID,
		SKU:            sku,
		Name:           "Kaos " + sku,
		Price:          100000,
		Stock:          stock,
		IsActive:       true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func stockOf(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return p.Stock
}

func TestReserveInventory(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	productA := seedProduct(t, db, "A", 5)
	productB := seedProduct(t, db, "B", 1)

	requests := []InventoryReservationRequest{
		{CartItemID: uuid.New(), ProductID: productA, Qty: 3},
		{CartItemID: uuid.New(), ProductID: productA, Qty: 4},
		{CartItemID: uuid.New(), ProductID: productB, Qty: 1},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		results, terr := ReserveInventory(ctx, tx, requests)
		if terr != nil {
			return terr
		}
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		if !results[0].Reserved || results[0].Reason != "" {
			t.Fatalf("expected first reservation to succeed")
		}
		if results[1].Reserved || results[1].Reason == "" {
			t.Fatalf("expected second reservation to fail with reason")
		}
		if !results[2].Reserved {
			t.Fatalf("expected third reservation to succeed")
		}
		if missing := Unreserved(results); len(missing) != 1 || missing[0].CartItemID != requests[1].CartItemID {
			t.Fatalf("unexpected unreserved set: %+v", missing)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reserve transaction: %v", err)
	}

	if got := stockOf(t, db, productA); got != 2 {
		t.Fatalf("expected product a stock 2, got %d", got)
	}
	if got := stockOf(t, db, productB); got != 0 {
		t.Fatalf("expected product b stock 0, got %d", got)
	}
}

func TestReserveInventoryRollsBackWithTransaction(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	product := seedProduct(t, db, "C", 2)

	_ = db.Transaction(func(tx *gorm.DB) error {
		if _, err := ReserveInventory(ctx, tx, []InventoryReservationRequest{{ProductID: product, Qty: 2}}); err != nil {
			t.Fatalf("reserve: %v", err)
		}
		return gorm.ErrInvalidTransaction
	})

	if got := stockOf(t, db, product); got != 2 {
		t.Fatalf("expected stock restored to 2, got %d", got)
	}
}

func TestReserveInventoryInvalidQty(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	product := seedProduct(t, db, "D", 5)

	_, err := ReserveInventory(ctx, db, []InventoryReservationRequest{{ProductID: product, Qty: 0}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := stockOf(t, db, product); got != 5 {
		t.Fatalf("expected stock untouched, got %d", got)
	}
}
