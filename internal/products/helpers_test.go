package product

import (
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type catalogFixture struct {
	db       *gorm.DB
	group    *models.ProductGroup
	variants map[string]models.ProductVariant
	clock    time.Time
}

func newCatalogFixture(t *testing.T, db *gorm.DB, axes map[string][]string) *catalogFixture {
	t.Helper()
	group := &models.ProductGroup{
		ID:       uuid.New(),
		Name:     "Phone X",
		Slug:     "phone-x-" + uuid.NewString()[:8],
		Category: "phones",
		Brand:    "Acme",
		IsActive: true,
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("create group: %v", err)
	}

	f := &catalogFixture{
		db:       db,
		group:    group,
		variants: map[string]models.ProductVariant{},
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for axis, values := range axes {
		for _, value := range values {
			variant := models.ProductVariant{
				ID:             uuid.New(),
				ProductGroupID: group.ID,
				Variant:        axis,
				Value:          value,
				IsActive:       true,
			}
			if err := db.Create(&variant).Error; err != nil {
				t.Fatalf("create variant: %v", err)
			}
			f.variants[axis+"="+value] = variant
		}
	}
	return f
}

// mustCreateProduct inserts a product linked to the given axis values. Each
// call is one second later than the previous to keep insertion order stable.
func (f *catalogFixture) mustCreateProduct(t *testing.T, sku string, price, stock int, selections map[string]string) *models.Product {
	t.Helper()
	f.clock = f.clock.Add(time.Second)
	product := &models.Product{
		ID:             uuid.New(),
		ProductGroupID: f.group.ID,
		SKU:            sku,
		Name:           "Phone X " + sku,
		Price:          price,
		Stock:          stock,
		IsActive:       true,
		CreatedAt:      f.clock,
	}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	for axis, value := range selections {
		variant, ok := f.variants[axis+"="+value]
		if !ok {
			t.Fatalf("unknown variant %s=%s", axis, value)
		}
		combo := models.ProductVariantCombination{
			ID:        uuid.New(),
			ProductID: product.ID,
			VariantID: variant.ID,
			CreatedAt: f.clock,
		}
		if err := f.db.Create(&combo).Error; err != nil {
			t.Fatalf("create combination: %v", err)
		}
	}
	return product
}
