package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type cartReader interface {
	ItemsForSession(ctx context.Context, sessionID string) (*models.Cart, error)
	ItemsForUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ValidateItems(ctx context.Context, lines []cart.CartLine) (*cart.ValidationResult, error)
}

type orderCreator interface {
	CreateGuestOrder(ctx context.Context, input orders.GuestOrderInput) (*orders.CreatedOrder, error)
	CreateAuthenticatedOrder(ctx context.Context, input orders.AuthenticatedOrderInput) (*orders.CreatedOrder, error)
}

type paymentIssuer interface {
	IssueToken(ctx context.Context, orderID uuid.UUID) (*payments.PaymentSession, error)
}

// Service turns a cart into an order: it re-validates the cart against the
// catalog, runs the order transaction and opens a payment session.
type Service interface {
	GuestCheckout(ctx context.Context, input GuestCheckoutInput) (*Result, error)
	Checkout(ctx context.Context, input CheckoutInput) (*Result, error)
}

// GuestCheckoutInput is an anonymous session's checkout form.
type GuestCheckoutInput struct {
	SessionID       string
	Customer        orders.CustomerInput
	ShippingAddress address.AddressInput
	Shipping        orders.ShippingInput
	Notes           string
}

// CheckoutInput is a signed-in user's checkout form.
type CheckoutInput struct {
	UserID    uuid.UUID
	AddressID uuid.UUID
	Shipping  orders.ShippingInput
	Notes     string
}

// Result describes a committed checkout. Payment is nil when the order was
// marked paid on creation or the gateway could not be reached; the client then
// uses the payment retry endpoint. AccessToken is only set for guest checkouts.
type Result struct {
	OrderID              uuid.UUID
	OrderNumber          string
	UserID               uuid.UUID
	NewUser              bool
	Payment              *payments.PaymentSession
	AccessToken          string
	AccessTokenExpiresAt time.Time
}

// ServiceParams wires the checkout orchestrator. Payments and Metrics are optional.
type ServiceParams struct {
	Cart     cartReader
	Orders   orderCreator
	Payments paymentIssuer
	JWT      config.JWTConfig
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	cart     cartReader
	orders   orderCreator
	payments paymentIssuer
	jwt      config.JWTConfig
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		cart:     params.Cart,
		orders:   params.Orders,
		payments: params.Payments,
		jwt:      params.JWT,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) GuestCheckout(ctx context.Context, input GuestCheckoutInput) (res *Result, err error) {
	started := s.now()
	defer func() { s.observe(metrics.FlowGuest, started, err) }()

	if input.SessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session not found")
	}
	ctx = s.logg.WithSessionID(ctx, input.SessionID)

	c, err := s.cart.ItemsForSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if err := s.validateCart(ctx, c); err != nil {
		return nil, err
	}

	created, err := s.orders.CreateGuestOrder(ctx, orders.GuestOrderInput{
		CartID:          c.ID,
		SessionID:       input.SessionID,
		Items:           c.Items,
		Customer:        input.Customer,
		ShippingAddress: input.ShippingAddress,
		Shipping:        input.Shipping,
		Notes:           input.Notes,
	})
	if err != nil {
		return nil, err
	}

	res = s.result(ctx, created)
	token, expiresAt, err := s.mintToken(created)
	if err != nil {
		s.logg.Error(ctx, "mint guest access token", err)
	} else {
		res.AccessToken = token
		res.AccessTokenExpiresAt = expiresAt
	}
	return res, nil
}

func (s *service) Checkout(ctx context.Context, input CheckoutInput) (res *Result, err error) {
	started := s.now()
	defer func() { s.observe(metrics.FlowAuthenticated, started, err) }()

	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if input.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	ctx = s.logg.WithUserID(ctx, input.UserID.String())

	c, err := s.cart.ItemsForUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.validateCart(ctx, c); err != nil {
		return nil, err
	}

	created, err := s.orders.CreateAuthenticatedOrder(ctx, orders.AuthenticatedOrderInput{
		UserID:    input.UserID,
		CartID:    c.ID,
		Items:     c.Items,
		AddressID: input.AddressID,
		Shipping:  input.Shipping,
		Notes:     input.Notes,
	})
	if err != nil {
		return nil, err
	}
	return s.result(ctx, created), nil
}

func (s *service) validateCart(ctx context.Context, c *models.Cart) error {
	if c == nil || c.ID == uuid.Nil || len(c.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	result, err := s.cart.ValidateItems(ctx, cart.LinesFromItems(c.Items))
	if err != nil {
		return err
	}
	if err := result.Err(); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cart_errors", len(result.Errors)), "cart failed validation at checkout")
		return err
	}
	return nil
}

// result opens the payment session for a committed order. Gateway failures
// are logged and leave Payment nil; the order stays unpaid.
func (s *service) result(ctx context.Context, created *orders.CreatedOrder) *Result {
	res := &Result{
		OrderID:     created.OrderID,
		OrderNumber: created.OrderNumber,
		UserID:      created.UserID,
		NewUser:     created.NewUser,
	}
	ctx = s.logg.WithOrderID(ctx, created.OrderID.String())
	if s.payments == nil {
		return res
	}
	if created.Order != nil && created.Order.PaymentStatus == enums.PaymentStatusPaid {
		return res
	}
	session, err := s.payments.IssueToken(ctx, created.OrderID)
	if err != nil {
		s.logg.Error(ctx, "issue payment token after checkout", err)
		return res
	}
	res.Payment = session
	return res
}

func (s *service) mintToken(created *orders.CreatedOrder) (string, time.Time, error) {
	if created.Order == nil {
		return "", time.Time{}, fmt.Errorf("created order missing")
	}
	now := s.now()
	token, err := auth.MintAccessToken(s.jwt, now, auth.AccessTokenPayload{
		UserID: created.UserID,
		Email:  created.Order.CustomerEmail,
		Role:   enums.UserRoleUser,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, now.Add(s.jwt.TTL()), nil
}

func (s *service) observe(flow string, started time.Time, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailed
		// client side failures are rejections, not faults
		if !pkgerrors.IsRetryable(err) {
			outcome = metrics.OutcomeRejected
		}
	}
	s.metrics.ObserveCheckout(flow, outcome, s.now().Sub(started))
}
