package payments

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/payment"
)

func TestIssueTokenBuildsGatewayRequest(t *testing.T) {
	ctx := context.Background()
	h := newPaymentHarness(t)
	order := h.seedOrder(t, nil)

	session, err := h.svc.IssueToken(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, session.OrderID)
	assert.Equal(t, order.OrderNumber, session.OrderNumber)
	assert.NotEmpty(t, session.PaymentURL)

	require.Len(t, h.gateway.requests, 1)
	req := h.gateway.requests[0]
	assert.Equal(t, 265000, req.GrossAmount)
	assert.Equal(t, "Dewi", req.Customer.FirstName)
	assert.Equal(t, "Lestari Putri", req.Customer.LastName)
	assert.Equal(t, "081234567890", req.Customer.Phone)
	assert.Equal(t, "https://shop.example.com/user/orders", req.FinishURL)
	require.Len(t, req.Items, 2)
	assert.Equal(t, payment.Item{ID: "shipping", Name: "Ongkos Kirim", Price: 15000, Quantity: 1}, req.Items[1])

	total := 0
	for _, item := range req.Items {
		total += item.Price * item.Quantity
	}
	assert.Equal(t, req.GrossAmount, total)

	stored := h.reload(t, order.ID)
	require.NotNil(t, stored.PaymentOrderID)
	assert.True(t, strings.HasPrefix(*stored.PaymentOrderID, order.OrderNumber+"-"))
	require.NotNil(t, stored.PaymentToken)
	assert.Equal(t, session.SnapToken, *stored.PaymentToken)
}

func TestIssueTokenRejectsSettledOrders(t *testing.T) {
	ctx := context.Background()
	h := newPaymentHarness(t)

	paid := h.seedOrder(t, func(o *models.Order) { o.PaymentStatus = enums.PaymentStatusPaid })
	_, err := h.svc.IssueToken(ctx, paid.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	cancelled := h.seedOrder(t, func(o *models.Order) { o.OrderStatus = enums.OrderStatusCancelled })
	_, err = h.svc.IssueToken(ctx, cancelled.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = h.svc.IssueToken(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Empty(t, h.gateway.requests)
}

func TestIssueTokenSurfacesGatewayFailure(t *testing.T) {
	h := newPaymentHarness(t)
	order := h.seedOrder(t, nil)
	h.gateway.err = errors.New("connection reset")

	_, err := h.svc.IssueToken(context.Background(), order.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeGateway))
	assert.Nil(t, h.reload(t, order.ID).PaymentOrderID)
}

func TestRetryReplacesGatewayOrderID(t *testing.T) {
	ctx := context.Background()
	h := newPaymentHarness(t)
	order := h.seedOrder(t, nil)

	first, err := h.svc.Retry(ctx, order.UserID, order.ID)
	require.NoError(t, err)
	firstID := *h.reload(t, order.ID).PaymentOrderID

	second, err := h.svc.Retry(ctx, order.UserID, order.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.SnapToken, second.SnapToken)
	assert.NotEqual(t, firstID, *h.reload(t, order.ID).PaymentOrderID)

	_, err = h.svc.Retry(ctx, order.UserID, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRateLimit))
}

func TestRetryChecksOwnership(t *testing.T) {
	ctx := context.Background()
	h := newPaymentHarness(t)
	order := h.seedOrder(t, nil)

	_, err := h.svc.Retry(ctx, uuid.New(), order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = h.svc.Retry(ctx, uuid.Nil, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	assert.Empty(t, h.gateway.requests)
}

func TestNotificationSettlementMarksOrderPaid(t *testing.T) {
	ctx := context.Background()
	h := newPaymentHarness(t)
	order := h.seedOrder(t, nil)
	_, err := h.svc.IssueToken(ctx, order.ID)
	require.NoError(t, err)
	gatewayID := *h.reload(t, order.ID).PaymentOrderID

	n := signed(payment.Notification{
		OrderID:           gatewayID,
		TransactionID:     "trx-1",
		TransactionStatus: "settlement",
		StatusCode:        "200",
		GrossAmount:       "265000.00",
		PaymentType:       "bank_transfer",
	})
	result, err := h.svc.HandleNotification(ctx, n)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, enums.PaymentStatusPaid, result.PaymentStatus)
	assert.Equal(t, enums.OrderStatusProcessing, result.OrderStatus)

	stored := h.reload(t, order.ID)
	assert.Equal(t, enums.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, enums.OrderStatusProcessing, stored.OrderStatus)
	require.NotNil(t, stored.PaidAt)
	require.NotNil(t, stored.PaymentMethod)
	assert.Equal(t, "bank_transfer", *stored.PaymentMethod)
	assert.EqualValues(t, 1, h.countEvents(t, order.ID, enums.EventOrderPaid))

	dup, err := h.svc.HandleNotification(ctx, n)
	require.NoError(t, err)
	assert.True(t, dup.Duplicate)

	late := signed(payment.Notification{
		OrderID:           gatewayID,
		TransactionID:     "trx-1",
		TransactionStatus: "pending",
		StatusCode:        "201",
		GrossAmount:       "265000.00",
	})
	result, err = h.svc.HandleNotification(ctx, late)
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, enums.PaymentStatusPaid, h.reload(t, order.ID).PaymentStatus)
	assert.EqualValues(t, 1, h.countEvents(t, order.ID, enums.EventOrderPaid))
}

func TestNotificationForEarlierAttemptAfterRetry(t *testing.T) {
	ctx := context.Background()
	h := newPaymentHarness(t)
	order := h.seedOrder(t, nil)

	_, err := h.svc.IssueToken(ctx, order.ID)
	require.NoError(t, err)
	firstID := *h.reload(t, order.ID).PaymentOrderID
	_, err = h.svc.Retry(ctx, order.UserID, order.ID)
	require.NoError(t, err)
	require.NotEqual(t, firstID, *h.reload(t, order.ID).PaymentOrderID)

	result, err := h.svc.HandleNotification(ctx, signed(payment.Notification{
		OrderID:           firstID,
		TransactionID:     "trx-early",
		TransactionStatus: "settlement",
		StatusCode:        "200",
		GrossAmount:       "265000.00",
		PaymentType:       "qris",
	}))
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, order.ID, result.OrderID)
	assert.Equal(t, enums.PaymentStatusPaid, h.reload(t, order.ID).PaymentStatus)

	_, err = h.svc.HandleNotification(ctx, signed(payment.Notification{
		OrderID:           "ORD-19990101-MISSING-1700000000001",
		TransactionStatus: "settlement",
		StatusCode:        "200",
		GrossAmount:       "265000.00",
	}))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestNotificationCaptureNeedsAcceptedFraudStatus(t *testing.T) {
	ctx := context.Background()
	h := newPaymentHarness(t)
	order := h.seedOrder(t, func(o *models.Order) { o.PaymentOrderID = strPtr("ORD-CAPTURE-1") })

	challenge := signed(payment.Notification{
		OrderID:           "ORD-CAPTURE-1",
		TransactionStatus: "capture",
		FraudStatus:       "challenge",
		StatusCode:        "201",
		GrossAmount:       "265000.00",
	})
	result, err := h.svc.HandleNotification(ctx, challenge)
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, enums.PaymentStatusUnpaid, h.reload(t, order.ID).PaymentStatus)

	accept := challenge
	accept.FraudStatus = "accept"
	accept.StatusCode = "200"
	accept = signed(accept)
	result, err = h.svc.HandleNotification(ctx, accept)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, enums.PaymentStatusPaid, h.reload(t, order.ID).PaymentStatus)
}

func TestNotificationPendingThenExpire(t *testing.T) {
	ctx := context.Background()
	h := newPaymentHarness(t)
	order := h.seedOrder(t, func(o *models.Order) { o.PaymentOrderID = strPtr("ORD-EXP-1") })

	pending := signed(payment.Notification{
		OrderID:           "ORD-EXP-1",
		TransactionStatus: "pending",
		StatusCode:        "201",
		GrossAmount:       "265000.00",
	})
	_, err := h.svc.HandleNotification(ctx, pending)
	require.NoError(t, err)
	stored := h.reload(t, order.ID)
	assert.Equal(t, enums.PaymentStatusPending, stored.PaymentStatus)
	assert.Equal(t, enums.OrderStatusPending, stored.OrderStatus)

	expire := signed(payment.Notification{
		OrderID:           "ORD-EXP-1",
		TransactionStatus: "expire",
		StatusCode:        "407",
		GrossAmount:       "265000.00",
	})
	result, err := h.svc.HandleNotification(ctx, expire)
	require.NoError(t, err)
	assert.True(t, result.Changed)

	stored = h.reload(t, order.ID)
	assert.Equal(t, enums.PaymentStatusFailed, stored.PaymentStatus)
	assert.Equal(t, enums.OrderStatusCancelled, stored.OrderStatus)
	assert.NotNil(t, stored.CancelledAt)
	assert.EqualValues(t, 1, h.countEvents(t, order.ID, enums.EventPaymentFailed))

	_, err = h.svc.Retry(ctx, order.UserID, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestNotificationRejections(t *testing.T) {
	ctx := context.Background()
	h := newPaymentHarness(t)
	order := h.seedOrder(t, func(o *models.Order) { o.PaymentOrderID = strPtr("ORD-REJ-1") })

	forged := payment.Notification{
		OrderID:           "ORD-REJ-1",
		TransactionStatus: "settlement",
		StatusCode:        "200",
		GrossAmount:       "265000.00",
		SignatureKey:      strings.Repeat("a", 128),
	}
	_, err := h.svc.HandleNotification(ctx, forged)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	wrongAmount := signed(payment.Notification{
		OrderID:           "ORD-REJ-1",
		TransactionStatus: "settlement",
		StatusCode:        "200",
		GrossAmount:       "1000.00",
	})
	_, err = h.svc.HandleNotification(ctx, wrongAmount)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, enums.PaymentStatusUnpaid, h.reload(t, order.ID).PaymentStatus)

	unknown := signed(payment.Notification{
		OrderID:           "ORD-MISSING-1",
		TransactionStatus: "settlement",
		StatusCode:        "200",
		GrossAmount:       "265000.00",
	})
	_, err = h.svc.HandleNotification(ctx, unknown)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	// a failed delivery releases its key so the gateway's redelivery is processed
	_, err = h.svc.HandleNotification(ctx, unknown)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Empty(t, h.store.keys)
}

func TestRefreshStatusAppliesGatewayState(t *testing.T) {
	ctx := context.Background()
	h := newPaymentHarness(t)
	order := h.seedOrder(t, func(o *models.Order) { o.PaymentOrderID = strPtr("ORD-REF-1") })
	h.gateway.status = &payment.TransactionStatus{TransactionStatus: "settlement", StatusCode: "200", GrossAmount: "265000.00"}

	result, err := h.svc.RefreshStatus(ctx, order.UserID, order.ID)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, enums.PaymentStatusPaid, h.reload(t, order.ID).PaymentStatus)

	fresh := h.seedOrder(t, nil)
	_, err = h.svc.RefreshStatus(ctx, fresh.UserID, fresh.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		status, fraud string
		want          outcome
	}{
		{"capture", "accept", outcomePaid},
		{"capture", "challenge", outcomeIgnored},
		{"settlement", "", outcomePaid},
		{"pending", "", outcomePending},
		{"deny", "", outcomeFailed},
		{"expire", "", outcomeFailed},
		{"cancel", "", outcomeFailed},
		{"refund", "", outcomeIgnored},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classify(tc.status, tc.fraud), "%s/%s", tc.status, tc.fraud)
	}
}

func TestIssueTokenAgainstSnapServer(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		if !ok || user != testServerKey || r.URL.Path != "/snap/v1/transactions" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"token":"snap-abc","redirect_url":"https://pay.example/snap-abc"}`))
	}))
	defer srv.Close()

	conn := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "payments-test", Output: io.Discard})
	client, err := payment.NewClient(config.PaymentConfig{ServerKey: testServerKey},
		payment.WithBaseURLs(srv.URL, srv.URL),
		payment.WithClock(func() time.Time { return time.UnixMilli(1773480000000) }),
	)
	require.NoError(t, err)
	repo := orders.NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Orders:  repo,
		Tx:      db.Wrap(conn),
		Gateway: client,
		Outbox:  outbox.NewService(outbox.NewRepository(conn), logg),
		Logger:  logg,
	})
	require.NoError(t, err)

	h := &paymentHarness{db: conn, svc: svc, repo: repo}
	order := h.seedOrder(t, nil)

	session, err := svc.IssueToken(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "snap-abc", session.SnapToken)
	assert.Equal(t, "https://pay.example/snap-abc", session.PaymentURL)

	details := body["transaction_details"].(map[string]any)
	assert.Equal(t, order.OrderNumber+"-1773480000000", details["order_id"])
	assert.EqualValues(t, 265000, details["gross_amount"])
	assert.Equal(t, order.OrderNumber+"-1773480000000", *h.reload(t, order.ID).PaymentOrderID)
}
