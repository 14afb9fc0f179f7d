package product

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryDecrementStock(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	f := newCatalogFixture(t, db, nil)
	product := f.mustCreateProduct(t, "SKU-1", 1000, 3, nil)
	repo := NewRepository(db)

	ok, err := repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok, "guard must reject decrement below zero")

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 1, reloaded.Stock)
}

func TestRepositoryFindByIDs(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	f := newCatalogFixture(t, db, nil)
	a := f.mustCreateProduct(t, "SKU-A", 1000, 1, nil)
	b := f.mustCreateProduct(t, "SKU-B", 2000, 1, nil)

	got, err := NewRepository(db).FindByIDs(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2000, got[b.ID].Price)

	empty, err := NewRepository(db).FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepositoryListGroupProductsIncludesVariantMaps(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	f := newCatalogFixture(t, db, map[string][]string{"Size": {"S", "M"}})
	small := f.mustCreateProduct(t, "TEE-S", 100, 1, map[string]string{"Size": "S"})
	f.mustCreateProduct(t, "TEE-M", 100, 1, map[string]string{"Size": "M"})

	rows, err := NewRepository(db).ListGroupProducts(ctx, f.group.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, small.ID, rows[0].Product.ID)
	assert.Equal(t, "S", rows[0].Variants["Size"])
	assert.Equal(t, "M", rows[1].Variants["Size"])
}
