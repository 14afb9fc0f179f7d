package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/payment"
)

// NotificationConsumer scopes dedupe keys for gateway webhook deliveries.
const NotificationConsumer = "payment_notification"

const (
	shippingItemID    = "shipping"
	shippingItemName  = "Ongkos Kirim"
	maxItemNameLength = 50
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Gateway is the hosted-checkout surface of the payment provider.
type Gateway interface {
	CreateTransaction(ctx context.Context, req payment.TransactionRequest) (*payment.Transaction, error)
	GetTransactionStatus(ctx context.Context, gatewayOrderID string) (*payment.TransactionStatus, error)
	ServerKey() string
}

type eventEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type deliveryGuard interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Service issues payment tokens and applies gateway callbacks to orders.
type Service interface {
	IssueToken(ctx context.Context, orderID uuid.UUID) (*PaymentSession, error)
	Retry(ctx context.Context, userID, orderID uuid.UUID) (*PaymentSession, error)
	HandleNotification(ctx context.Context, n payment.Notification) (*NotificationResult, error)
	RefreshStatus(ctx context.Context, userID, orderID uuid.UUID) (*NotificationResult, error)
}

// ServiceParams wires the payment service. Deliveries, Limiter and Metrics are optional.
type ServiceParams struct {
	Orders      orders.Repository
	Tx          txRunner
	Gateway     Gateway
	Outbox      eventEmitter
	Deliveries  deliveryGuard
	Limiter     rateLimiter
	Metrics     *metrics.CheckoutMetrics
	Logger      *logger.Logger
	FinishURL   string
	RetryLimit  int
	RetryWindow time.Duration
	Now         func() time.Time
}

type service struct {
	orders      orders.Repository
	tx          txRunner
	gateway     Gateway
	outbox      eventEmitter
	deliveries  deliveryGuard
	limiter     rateLimiter
	metrics     *metrics.CheckoutMetrics
	logg        *logger.Logger
	finishURL   string
	retryLimit  int64
	retryWindow time.Duration
	now         func() time.Time
}

// NewService builds the payment service.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		orders:      params.Orders,
		tx:          params.Tx,
		gateway:     params.Gateway,
		outbox:      params.Outbox,
		deliveries:  params.Deliveries,
		limiter:     params.Limiter,
		metrics:     params.Metrics,
		logg:        params.Logger,
		finishURL:   params.FinishURL,
		retryLimit:  int64(params.RetryLimit),
		retryWindow: params.RetryWindow,
		now:         now,
	}, nil
}

// IssueToken opens a new gateway transaction for the order and stores the
// gateway order id and token on it.
func (s *service) IssueToken(ctx context.Context, orderID uuid.UUID) (*PaymentSession, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, order)
}

// Retry replaces the payment token of an unpaid order owned by userID.
func (s *service) Retry(ctx context.Context, userID, orderID uuid.UUID) (*PaymentSession, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if err := s.allowRetry(ctx, userID); err != nil {
		return nil, err
	}
	order, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	session, err := s.issue(ctx, order)
	if err != nil {
		return nil, err
	}
	s.logg.Info(ctx, "payment token reissued")
	return session, nil
}

// HandleNotification verifies a gateway callback and moves the matching
// order's payment and order status.
func (s *service) HandleNotification(ctx context.Context, n payment.Notification) (*NotificationResult, error) {
	if !payment.VerifySignature(n, s.gateway.ServerKey()) {
		s.logg.Warn(s.logg.WithField(ctx, "payment_order_id", n.OrderID), "payment notification signature rejected")
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "invalid signature")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"payment_order_id":   n.OrderID,
		"transaction_status": n.TransactionStatus,
		"fraud_status":       n.FraudStatus,
	})

	deliveryKey := strings.Join([]string{n.OrderID, n.TransactionStatus, n.StatusCode, n.TransactionID}, ":")
	if s.deliveries != nil {
		first, err := s.deliveries.Claim(ctx, deliveryKey)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check notification idempotency")
		}
		if !first {
			s.logg.Info(ctx, "duplicate payment notification skipped")
			return &NotificationResult{Duplicate: true}, nil
		}
	}

	result, err := s.apply(ctx, n.OrderID, n.TransactionStatus, n.FraudStatus, n.GrossAmount, n.PaymentType)
	if err != nil {
		if s.deliveries != nil {
			if delErr := s.deliveries.Release(ctx, deliveryKey); delErr != nil {
				s.logg.Error(ctx, "release notification idempotency key", delErr)
			}
		}
		return nil, err
	}
	s.metrics.IncNotification(n.TransactionStatus)
	return result, nil
}

// RefreshStatus asks the gateway for the latest state of the order's current
// payment attempt and applies it like a notification.
func (s *service) RefreshStatus(ctx context.Context, userID, orderID uuid.UUID) (*NotificationResult, error) {
	order, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentOrderID == nil || *order.PaymentOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no payment attempt")
	}
	status, err := s.gateway.GetTransactionStatus(ctx, *order.PaymentOrderID)
	if err != nil {
		return nil, gatewayError(err, "fetch transaction status")
	}
	return s.apply(ctx, *order.PaymentOrderID, status.TransactionStatus, status.FraudStatus, status.GrossAmount, status.PaymentType)
}

func (s *service) apply(ctx context.Context, gatewayOrderID, transactionStatus, fraudStatus, grossAmount, paymentType string) (*NotificationResult, error) {
	var result *NotificationResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := findByGatewayID(ctx, repo, gatewayOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by payment id")
		}
		if err := matchAmount(grossAmount, order.Total); err != nil {
			return err
		}

		result = &NotificationResult{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			PaymentStatus: order.PaymentStatus,
			OrderStatus:   order.OrderStatus,
		}
		updates, event := s.transition(order, classify(transactionStatus, fraudStatus), transactionStatus, paymentType)
		if updates == nil {
			return nil
		}
		if _, err := repo.UpdateFields(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order payment status")
		}
		if event != nil {
			if err := s.outbox.EmitIfNotExists(ctx, tx, *event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payment event")
			}
		}
		result.Changed = true
		result.PaymentStatus = updates["payment_status"].(enums.PaymentStatus)
		result.OrderStatus = updates["order_status"].(enums.OrderStatus)
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "apply payment notification")
	}
	if result.Changed {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id":       result.OrderID.String(),
			"payment_status": result.PaymentStatus.String(),
			"order_status":   result.OrderStatus.String(),
		}), "order payment status updated")
	}
	return result, nil
}

// findByGatewayID resolves the order for a gateway id. A retry replaces the
// stored id, so callbacks for earlier attempts fall back to the order number
// embedded in the id.
func findByGatewayID(ctx context.Context, repo orders.Repository, gatewayOrderID string) (*models.Order, error) {
	order, err := repo.FindByPaymentOrderID(ctx, gatewayOrderID)
	if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
		return order, err
	}
	number, ok := payment.OrderNumberFromGatewayID(gatewayOrderID)
	if !ok {
		return nil, err
	}
	return repo.FindByNumber(ctx, number)
}

// transition returns the column updates for an outcome, or nil when the order
// must stay as it is. A paid order is never moved back by a late callback.
func (s *service) transition(order *models.Order, out outcome, transactionStatus, paymentType string) (map[string]any, *outbox.DomainEvent) {
	now := s.now().UTC()
	paymentOrderID := ""
	if order.PaymentOrderID != nil {
		paymentOrderID = *order.PaymentOrderID
	}

	switch out {
	case outcomePaid:
		if order.PaymentStatus == enums.PaymentStatusPaid {
			return nil, nil
		}
		updates := map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"order_status":   enums.OrderStatusProcessing,
			"paid_at":        now,
		}
		if paymentType != "" {
			updates["payment_method"] = paymentType
		}
		return updates, &outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPaidEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				UserID:         order.UserID,
				PaymentOrderID: paymentOrderID,
				PaymentMethod:  paymentType,
				Amount:         order.Total,
				PaidAt:         now,
			},
			OccurredAt: now,
		}
	case outcomePending:
		if order.PaymentStatus != enums.PaymentStatusUnpaid || order.OrderStatus != enums.OrderStatusPending {
			return nil, nil
		}
		return map[string]any{
			"payment_status": enums.PaymentStatusPending,
			"order_status":   enums.OrderStatusPending,
		}, nil
	case outcomeFailed:
		if order.PaymentStatus.IsFinal() {
			return nil, nil
		}
		updates := map[string]any{
			"payment_status": enums.PaymentStatusFailed,
			"order_status":   enums.OrderStatusCancelled,
			"cancelled_at":   now,
		}
		return updates, &outbox.DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.PaymentFailedEvent{
				OrderID:           order.ID,
				OrderNumber:       order.OrderNumber,
				UserID:            order.UserID,
				PaymentOrderID:    paymentOrderID,
				TransactionStatus: strings.ToLower(transactionStatus),
			},
			OccurredAt: now,
		}
	default:
		return nil, nil
	}
}

func (s *service) issue(ctx context.Context, order *models.Order) (*PaymentSession, error) {
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}
	if order.OrderStatus == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
	}

	txn, err := s.gateway.CreateTransaction(ctx, s.transactionRequest(order))
	if err != nil {
		return nil, gatewayError(err, "create payment transaction")
	}
	if _, err := s.orders.UpdateFields(ctx, order.ID, map[string]any{
		"payment_order_id": txn.GatewayOrderID,
		"payment_token":    txn.Token,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment token")
	}
	return &PaymentSession{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		PaymentURL:  txn.RedirectURL,
		SnapToken:   txn.Token,
	}, nil
}

func (s *service) transactionRequest(order *models.Order) payment.TransactionRequest {
	items := make([]payment.Item, 0, len(order.Items)+1)
	for _, item := range order.Items {
		id := item.ProductSKU
		if item.ProductID != nil {
			id = item.ProductID.String()
		}
		items = append(items, payment.Item{
			ID:       id,
			Name:     truncate(item.ProductName, maxItemNameLength),
			Price:    item.UnitPrice,
			Quantity: item.Quantity,
		})
	}
	if order.ShippingCost > 0 {
		items = append(items, payment.Item{
			ID:       shippingItemID,
			Name:     shippingItemName,
			Price:    order.ShippingCost,
			Quantity: 1,
		})
	}

	first, last := splitName(order.CustomerName)
	phone := order.ShippingAddress.Phone
	if order.CustomerPhone != nil && *order.CustomerPhone != "" {
		phone = *order.CustomerPhone
	}
	return payment.TransactionRequest{
		OrderNumber: order.OrderNumber,
		GrossAmount: order.Total,
		Customer: payment.Customer{
			FirstName: first,
			LastName:  last,
			Email:     order.CustomerEmail,
			Phone:     phone,
		},
		Items:     items,
		FinishURL: s.finishURL,
	}
}

func (s *service) allowRetry(ctx context.Context, userID uuid.UUID) error {
	if s.limiter == nil || s.retryLimit <= 0 || s.retryWindow <= 0 {
		return nil
	}
	allowed, _, err := s.limiter.FixedWindowAllow(ctx, "payment_retry:"+userID.String(), s.retryLimit, s.retryWindow)
	if err != nil {
		s.logg.Error(ctx, "payment retry rate limit check failed", err)
		return nil
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many payment attempts, try again later")
	}
	return nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) loadOwned(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return order, nil
}

// matchAmount rejects callbacks whose gross amount ("265000.00") differs from
// the order total.
func matchAmount(grossAmount string, total int) error {
	amount, err := decimal.NewFromString(strings.TrimSpace(grossAmount))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gross amount")
	}
	if !amount.Equal(decimal.NewFromInt(int64(total))) {
		return pkgerrors.New(pkgerrors.CodeValidation, "gross amount does not match order total").
			WithDetails(map[string]any{"grossAmount": amount.String(), "total": total})
	}
	return nil
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}

// gatewayError keeps typed errors from the payment client and marks anything
// else as a provider failure.
func gatewayError(err error, msg string) error {
	if err == nil || pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeGateway, err, msg)
}

func asTyped(err error, msg string) error {
	if err == nil || pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
