package payments

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/storefront-backend/pkg/payment"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const testServerKey = "SB-Mid-server-test"

type stubGateway struct {
	mu       sync.Mutex
	requests []payment.TransactionRequest
	status   *payment.TransactionStatus
	err      error
	seq      int
}

func (g *stubGateway) CreateTransaction(_ context.Context, req payment.TransactionRequest) (*payment.Transaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)
	g.seq++
	id := payment.GatewayOrderID(req.OrderNumber, time.UnixMilli(int64(1700000000000+g.seq)))
	return &payment.Transaction{
		Token:          "snap-token-" + id,
		RedirectURL:    "https://app.sandbox.midtrans.com/snap/v4/redirection/" + id,
		GatewayOrderID: id,
	}, nil
}

func (g *stubGateway) GetTransactionStatus(_ context.Context, gatewayOrderID string) (*payment.TransactionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	status := *g.status
	status.OrderID = gatewayOrderID
	return &status, nil
}

func (g *stubGateway) ServerKey() string { return testServerKey }

// memoryStore is an in-process stand-in for the redis idempotency keys.
type memoryStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key], nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = "1"
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "sf:idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

type countingLimiter struct {
	calls map[string]int64
}

func (l *countingLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if l.calls == nil {
		l.calls = map[string]int64{}
	}
	l.calls[scope]++
	return l.calls[scope] <= limit, l.calls[scope], nil
}

type paymentHarness struct {
	db      *gorm.DB
	svc     Service
	repo    orders.Repository
	gateway *stubGateway
	store   *memoryStore
}

func newPaymentHarness(t *testing.T) *paymentHarness {
	t.Helper()
	conn := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "payments-test", Output: io.Discard})
	store := newMemoryStore()
	deliveries, err := idempotency.NewGuard(store, NotificationConsumer, 24*time.Hour)
	require.NoError(t, err)

	gateway := &stubGateway{}
	repo := orders.NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Orders:      repo,
		Tx:          db.Wrap(conn),
		Gateway:     gateway,
		Outbox:      outbox.NewService(outbox.NewRepository(conn), logg),
		Deliveries:  deliveries,
		Limiter:     &countingLimiter{},
		Logger:      logg,
		FinishURL:   "https://shop.example.com/user/orders",
		RetryLimit:  2,
		RetryWindow: time.Minute,
		Now:         func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return &paymentHarness{db: conn, svc: svc, repo: repo, gateway: gateway, store: store}
}

// seedOrder stores a 2 x 125000 order with 15000 shipping for a new user.
func (h *paymentHarness) seedOrder(t *testing.T, mutate func(*models.Order)) *models.Order {
	t.Helper()
	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Name: "Dewi Lestari", Email: uuid.NewString() + "@example.com", Role: enums.UserRoleUser, IsActive: true}
	require.NoError(t, h.db.Create(user).Error)

	snapshot := types.AddressSnapshot{
		AddressLabel: "Rumah",
		Phone:        "081234567890",
		FullAddress:  "Jl. Sudirman No. 1",
		City:         "Jakarta Selatan",
		Province:     "DKI Jakarta",
		PostalCode:   "12920",
		Country:      "ID",
	}
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     "ORD-20260314-" + uuid.NewString()[:8],
		UserID:          user.ID,
		CustomerEmail:   user.Email,
		CustomerName:    "Dewi Lestari Putri",
		ShippingAddress: snapshot,
		BillingAddress:  snapshot,
		Subtotal:        250000,
		ShippingCost:    15000,
		Total:           265000,
		Currency:        "IDR",
		OrderStatus:     enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusUnpaid,
	}
	if mutate != nil {
		mutate(order)
	}
	require.NoError(t, h.repo.CreateOrder(ctx, order))

	productID := uuid.New()
	require.NoError(t, h.repo.CreateItems(ctx, []models.OrderItem{{
		ID:          uuid.New(),
		OrderID:     order.ID,
		ProductID:   &productID,
		ProductName: "Kemeja Linen - Putih, L",
		ProductSKU:  "KL-PUT-L",
		Quantity:    2,
		UnitPrice:   125000,
		Subtotal:    250000,
	}}))
	return order
}

func (h *paymentHarness) reload(t *testing.T, id uuid.UUID) *models.Order {
	t.Helper()
	order, err := h.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return order
}

func (h *paymentHarness) countEvents(t *testing.T, orderID uuid.UUID, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Table("outbox_events").
		Where("aggregate_id = ? AND event_type = ?", orderID, eventType).
		Count(&n).Error)
	return n
}

func signed(n payment.Notification) payment.Notification {
	n.SignatureKey = payment.Signature(n.OrderID, n.StatusCode, n.GrossAmount, testServerKey)
	return n
}

func strPtr(v string) *string { return &v }
