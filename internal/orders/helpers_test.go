package orders

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stepClock hands out strictly increasing timestamps.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type failingClearer struct{}

func (failingClearer) Clear(context.Context, *gorm.DB, uuid.UUID, int) error {
	return errors.New("cart store unavailable")
}

type orderHarness struct {
	db      *gorm.DB
	svc     Service
	repo    Repository
	address address.Service
	clock   *stepClock
	group   *models.ProductGroup
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	clearer  cartClearer
	markPaid bool
}

func withClearer(c cartClearer) harnessOption {
	return func(cfg *harnessConfig) { cfg.clearer = c }
}

func withMarkPaid() harnessOption {
	return func(cfg *harnessConfig) { cfg.markPaid = true }
}

func newOrderHarness(t *testing.T, opts ...harnessOption) *orderHarness {
	t.Helper()
	conn := dbtest.Open(t)
	client := db.Wrap(conn)
	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})

	productRepo := product.NewRepository(conn)
	catalog, err := product.NewService(productRepo)
	require.NoError(t, err)
	cartSvc, err := cart.NewService(cart.NewRepository(conn), client, productRepo, catalog)
	require.NoError(t, err)
	addressSvc, err := address.NewService(address.NewRepository(conn), client)
	require.NoError(t, err)

	cfg := harnessConfig{clearer: cartSvc}
	for _, opt := range opts {
		opt(&cfg)
	}

	clock := newStepClock()
	repo := NewRepository(conn)
	svc, err := NewService(
		repo,
		client,
		users.NewRepository(conn),
		addressSvc,
		cfg.clearer,
		outbox.NewService(outbox.NewRepository(conn), logg),
		logg,
		Options{
			Checkout: config.CheckoutConfig{
				DefaultShippingCost: 15000,
				Currency:            "IDR",
				OrderNumberPrefix:   "ORD",
			},
			Password: config.PasswordConfig{
				ArgonMemoryKB:    64,
				ArgonTime:        1,
				ArgonParallelism: 1,
				ArgonSaltLen:     16,
				ArgonKeyLen:      32,
			},
			MarkPaidOnCreate: cfg.markPaid,
			Now:              clock.Now,
		},
	)
	require.NoError(t, err)

	group := &models.ProductGroup{
		ID:       uuid.New(),
		Name:     "Kemeja Batik",
		Slug:     "kemeja-batik",
		Category: "apparel",
		Brand:    "Parang",
		IsActive: true,
	}
	require.NoError(t, conn.Create(group).Error)

	return &orderHarness{db: conn, svc: svc, repo: repo, address: addressSvc, clock: clock, group: group}
}

func (h *orderHarness) mustProduct(t *testing.T, sku string, price, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:             uuid.New(),
		ProductGroupID: h.group.ID,
		SKU:            sku,
		Name:           "Kemeja " + sku,
		Price:          price,
		Stock:          stock,
		IsActive:       true,
	}
	require.NoError(t, h.db.Create(p).Error)
	return p
}

type line struct {
	product *models.Product
	qty     int
}

// mustCart stores a cart for the owner holding the given lines at the
// current product prices.
func (h *orderHarness) mustCart(t *testing.T, sessionID string, userID *uuid.UUID, lines ...line) *models.Cart {
	t.Helper()
	c := &models.Cart{ID: uuid.New(), UserID: userID}
	if sessionID != "" {
		c.SessionID = &sessionID
	}
	require.NoError(t, h.db.Create(c).Error)
	for i, l := range lines {
		item := models.CartItem{
			ID:        uuid.New(),
			CartID:    c.ID,
			ProductID: l.product.ID,
			Quantity:  l.qty,
			Price:     l.product.Price,
			Name:      l.product.Name,
			SKU:       l.product.SKU,
			CreatedAt: time.Date(2026, 3, 1, 0, 0, i, 0, time.UTC),
		}
		require.NoError(t, h.db.Create(&item).Error)
		c.Items = append(c.Items, item)
	}
	return c
}

func (h *orderHarness) mustUser(t *testing.T, email string) *models.User {
	t.Helper()
	phone := "0812000111"
	u := &models.User{
		ID:          uuid.New(),
		Name:        "Sari",
		Email:       email,
		Phone:       &phone,
		Role:        "user",
		IsConfirmed: true,
		IsActive:    true,
	}
	require.NoError(t, h.db.Create(u).Error)
	return u
}

func (h *orderHarness) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := h.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func (h *orderHarness) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, h.db.First(&p, "id = ?", id).Error)
	return p.Stock
}

func guestInput(c *models.Cart, email string) GuestOrderInput {
	return GuestOrderInput{
		CartID:    c.ID,
		SessionID: *c.SessionID,
		Items:     c.Items,
		Customer: CustomerInput{
			Name:  "Budi Santoso",
			Email: email,
			Phone: "081234567890",
		},
		ShippingAddress: address.AddressInput{
			AddressLabel:  "Rumah",
			StreetAddress: "Jl. Kebon Jeruk No. 7",
			Village:       "Kebon Jeruk",
			District:      "Kebon Jeruk",
			City:          "Jakarta Barat",
			State:         "DKI Jakarta",
			PostalCode:    "11530",
			ProvinceCode:  "31",
			RegencyCode:   "31.73",
			DistrictCode:  "31.73.05",
			VillageCode:   "31.73.05.1001",
		},
		Shipping: ShippingInput{Courier: "JNE", Service: "REG"},
		Notes:    "Titip di satpam",
	}
}
