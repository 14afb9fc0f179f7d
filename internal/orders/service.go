package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/checkout/reservation"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type addressBook interface {
	GetForOwner(ctx context.Context, tx *gorm.DB, addressID, userID uuid.UUID) (*models.Address, error)
	CreateFromCheckout(ctx context.Context, input address.CheckoutAddressInput) (*address.AddressDTO, error)
}

type cartClearer interface {
	Clear(ctx context.Context, tx *gorm.DB, cartID uuid.UUID, lines int) error
}

// InventoryReserver takes stock for the order lines inside the order transaction.
type InventoryReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.InventoryReservationRequest) ([]reservation.InventoryReservationResult, error)
}

type reservationEngine struct{}

func (reservationEngine) Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.InventoryReservationRequest) ([]reservation.InventoryReservationResult, error) {
	return reservation.ReserveInventory(ctx, tx, requests)
}

// Service owns order creation, the status lifecycle and order reads.
type Service interface {
	CreateGuestOrder(ctx context.Context, input GuestOrderInput) (*CreatedOrder, error)
	CreateAuthenticatedOrder(ctx context.Context, input AuthenticatedOrderInput) (*CreatedOrder, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error)
	UpdateAdminNotes(ctx context.Context, orderID uuid.UUID, notes string) (*OrderDTO, error)
	GetAdminOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	ListAdmin(ctx context.Context, filters AdminOrderFilters, params pagination.PageParams) (*OrderPage, error)
	Export(ctx context.Context, filters AdminOrderFilters) (*ExportFile, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.PageParams) (*OrderPage, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
}

// Options tunes order creation.
type Options struct {
	Checkout         config.CheckoutConfig
	Password         config.PasswordConfig
	MarkPaidOnCreate bool
	Inventory        InventoryReserver
	Now              func() time.Time
}

type service struct {
	repo      Repository
	tx        txRunner
	users     *users.Repository
	addresses addressBook
	cart      cartClearer
	outbox    outboxPublisher
	inventory InventoryReserver
	logg      *logger.Logger
	cfg       config.CheckoutConfig
	password  config.PasswordConfig
	markPaid  bool
	now       func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	userRepo *users.Repository,
	addresses addressBook,
	cart cartClearer,
	publisher outboxPublisher,
	logg *logger.Logger,
	opts Options,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address book required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.Inventory == nil {
		opts.Inventory = reservationEngine{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Checkout.Currency == "" {
		opts.Checkout.Currency = "IDR"
	}
	return &service{
		repo:      repo,
		tx:        tx,
		users:     userRepo,
		addresses: addresses,
		cart:      cart,
		outbox:    publisher,
		inventory: opts.Inventory,
		logg:      logg,
		cfg:       opts.Checkout,
		password:  opts.Password,
		markPaid:  opts.MarkPaidOnCreate,
		now:       opts.Now,
	}, nil
}

// orderDraft is the part of order creation shared by both checkout flows.
type orderDraft struct {
	UserID        uuid.UUID
	CartID        uuid.UUID
	Items         []models.CartItem
	CustomerEmail string
	CustomerName  string
	CustomerPhone *string
	Shipping      types.AddressSnapshot
	Billing       types.AddressSnapshot
	ShippingInput ShippingInput
	Notes         string
	Guest         bool
}

func (s *service) CreateGuestOrder(ctx context.Context, input GuestOrderInput) (*CreatedOrder, error) {
	if err := validateGuestInput(input); err != nil {
		return nil, err
	}
	email := users.NormalizeEmail(input.Customer.Email)
	ctx = s.logg.WithFields(ctx, map[string]any{"checkout_flow": "guest", "cart_id": input.CartID.String()})

	// hash before the transaction opens
	hash, err := security.HashOpaquePassword(s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate account credentials")
	}

	var created *CreatedOrder
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.users.WithTx(tx)
		taken, err := userRepo.EmailTaken(ctx, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user by email")
		}
		if taken {
			return emailTaken()
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Name:         input.Customer.Name,
			Email:        email,
			Phone:        optional(input.Customer.Phone),
			PasswordHash: hash,
			Role:         enums.UserRoleUser,
			IsConfirmed:  true,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return emailTaken()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}

		shipping := guestSnapshot(input.ShippingAddress, strings.TrimSpace(input.Customer.Phone))
		order, err := s.persistOrder(ctx, tx, orderDraft{
			UserID:        user.ID,
			CartID:        input.CartID,
			Items:         input.Items,
			CustomerEmail: user.Email,
			CustomerName:  user.Name,
			CustomerPhone: user.Phone,
			Shipping:      shipping,
			Billing:       shipping.WithoutLocationCodes(),
			ShippingInput: input.Shipping,
			Notes:         input.Notes,
			Guest:         true,
		})
		if err != nil {
			return err
		}
		created = &CreatedOrder{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      user.ID,
			NewUser:     true,
			Order:       order,
		}
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "create guest order")
	}

	ctx = s.logg.WithOrderID(ctx, created.OrderID.String())
	ctx = s.logg.WithUserID(ctx, created.UserID.String())
	s.logg.Info(ctx, "guest order created")

	s.rememberAddress(ctx, created.UserID, input.ShippingAddress)
	return created, nil
}

// rememberAddress saves the checkout address into the new account's address
// book. The order is already committed, so failures are only logged.
func (s *service) rememberAddress(ctx context.Context, userID uuid.UUID, in address.AddressInput) {
	if _, err := s.addresses.CreateFromCheckout(ctx, address.CheckoutAddressInput{UserID: userID, AddressInput: in}); err != nil {
		s.logg.Error(ctx, "save checkout address failed", err)
	}
}

func (s *service) CreateAuthenticatedOrder(ctx context.Context, input AuthenticatedOrderInput) (*CreatedOrder, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}
	if input.CartID == uuid.Nil || len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"checkout_flow": "authenticated", "cart_id": input.CartID.String()})
	ctx = s.logg.WithUserID(ctx, input.UserID.String())

	var created *CreatedOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		user, err := s.users.WithTx(tx).FindByID(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}

		addr, err := s.addresses.GetForOwner(ctx, tx, input.AddressID, input.UserID)
		if err != nil {
			return err
		}
		phone := ""
		if user.Phone != nil {
			phone = *user.Phone
		}
		shipping := address.Snapshot(addr, phone)

		order, err := s.persistOrder(ctx, tx, orderDraft{
			UserID:        user.ID,
			CartID:        input.CartID,
			Items:         input.Items,
			CustomerEmail: user.Email,
			CustomerName:  user.Name,
			CustomerPhone: user.Phone,
			Shipping:      shipping,
			Billing:       shipping,
			ShippingInput: input.Shipping,
			Notes:         input.Notes,
		})
		if err != nil {
			return err
		}
		created = &CreatedOrder{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      user.ID,
			Order:       order,
		}
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "create order")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, created.OrderID.String()), "order created")
	return created, nil
}

// persistOrder writes the order, its items, the stock reservation, the cart
// clear and the order_created event on tx.
func (s *service) persistOrder(ctx context.Context, tx *gorm.DB, draft orderDraft) (*models.Order, error) {
	if len(draft.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	repo := s.repo.WithTx(tx)
	now := s.now().UTC()

	subtotal := 0
	for _, item := range draft.Items {
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
				WithDetails(map[string]any{"productId": item.ProductID})
		}
		subtotal += item.Price * item.Quantity
	}
	shippingCost := s.cfg.DefaultShippingCost
	if draft.ShippingInput.Cost != nil {
		if *draft.ShippingInput.Cost < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping cost cannot be negative")
		}
		shippingCost = *draft.ShippingInput.Cost
	}
	totals := ComputeTotals(subtotal, shippingCost, 0, 0)

	number, err := s.nextOrderNumber(ctx, repo, now)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     number,
		UserID:          draft.UserID,
		CustomerEmail:   draft.CustomerEmail,
		CustomerName:    draft.CustomerName,
		CustomerPhone:   draft.CustomerPhone,
		ShippingAddress: draft.Shipping,
		BillingAddress:  draft.Billing,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		ShippingCost:    totals.ShippingCost,
		Discount:        totals.Discount,
		Total:           totals.Total,
		Currency:        s.cfg.Currency,
		OrderStatus:     enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusUnpaid,
		Carrier:         carrierLabel(draft.ShippingInput),
		CustomerNotes:   optional(draft.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if s.markPaid {
		order.PaymentStatus = enums.PaymentStatusPaid
		order.PaidAt = &now
	}
	if err := repo.CreateOrder(ctx, order); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already used")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
	}

	items := make([]models.OrderItem, 0, len(draft.Items))
	requests := make([]reservation.InventoryReservationRequest, 0, len(draft.Items))
	for i, line := range draft.Items {
		productID := line.ProductID
		items = append(items, models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   &productID,
			ProductName: line.Name,
			ProductSKU:  line.SKU,
			ImageURL:    line.ThumbnailURL,
			Quantity:    line.Quantity,
			UnitPrice:   line.Price,
			Subtotal:    line.Price * line.Quantity,
			CreatedAt:   now.Add(time.Duration(i) * time.Microsecond),
		})
		requests = append(requests, reservation.InventoryReservationRequest{
			CartItemID: line.ID,
			ProductID:  line.ProductID,
			Qty:        line.Quantity,
		})
	}
	if err := repo.CreateItems(ctx, items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order items")
	}
	order.Items = items

	results, err := s.inventory.Reserve(ctx, tx, requests)
	if err != nil {
		return nil, err
	}
	if missing := reservation.Unreserved(results); len(missing) > 0 {
		return nil, outOfStock(missing)
	}

	if err := s.cart.Clear(ctx, tx, draft.CartID, len(draft.Items)); err != nil {
		return nil, err
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderCreatedEvent{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			UserID:        order.UserID,
			CustomerEmail: order.CustomerEmail,
			GuestCheckout: draft.Guest,
			ItemCount:     len(items),
			Subtotal:      order.Subtotal,
			ShippingCost:  order.ShippingCost,
			Total:         order.Total,
			Currency:      order.Currency,
			PaymentStatus: order.PaymentStatus,
		},
		OccurredAt: now,
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created event")
	}
	return order, nil
}

// Totals holds the money columns of an order, in the smallest currency unit.
type Totals struct {
	Subtotal     int
	ShippingCost int
	Tax          int
	Discount     int
	Total        int
}

// ComputeTotals applies total = subtotal + shipping + tax - discount.
func ComputeTotals(subtotal, shippingCost, tax, discount int) Totals {
	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shippingCost,
		Tax:          tax,
		Discount:     discount,
		Total:        subtotal + shippingCost + tax - discount,
	}
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"status": input.Status})
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		now := s.now().UTC()
		if _, err := repo.UpdateFields(ctx, orderID, StatusUpdates(input, now)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		reread, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}

		var actor *outbox.ActorRef
		if input.ActorUserID != nil {
			actor = &outbox.ActorRef{UserID: *input.ActorUserID, Role: string(enums.UserRoleAdmin)}
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         actor,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        orderID,
				OrderNumber:    reread.OrderNumber,
				UserID:         reread.UserID,
				PreviousStatus: current.OrderStatus,
				Status:         reread.OrderStatus,
				TrackingNumber: reread.TrackingNumber,
				Reason:         reread.CancellationReason,
				ChangedAt:      now,
			},
			OccurredAt: now,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit status changed event")
		}
		updated = reread
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "update order status")
	}

	s.logg.Info(s.logg.WithField(ctx, "order_status", input.Status.String()), "order status updated")
	return NewOrderDTO(updated), nil
}

// StatusUpdates returns the column changes for moving an order to
// input.Status at now:
//
//	pending    clears shipped_at, delivered_at, cancelled_at and the reason
//	processing touches no timestamp
//	shipped    sets shipped_at, clears delivered_at, cancelled_at and the reason
//	delivered  sets delivered_at, clears cancelled_at and the reason
//	cancelled  sets cancelled_at and the reason when one is given
func StatusUpdates(input UpdateStatusInput, now time.Time) map[string]any {
	updates := map[string]any{
		"order_status": input.Status,
		"updated_at":   now,
	}
	switch input.Status {
	case enums.OrderStatusPending:
		updates["shipped_at"] = nil
		updates["delivered_at"] = nil
		updates["cancelled_at"] = nil
		updates["cancellation_reason"] = nil
	case enums.OrderStatusShipped:
		updates["shipped_at"] = now
		updates["delivered_at"] = nil
		updates["cancelled_at"] = nil
		updates["cancellation_reason"] = nil
		if input.TrackingNumber != nil {
			updates["tracking_number"] = optional(*input.TrackingNumber)
		}
		if input.Carrier != nil {
			updates["carrier"] = optional(*input.Carrier)
		}
	case enums.OrderStatusDelivered:
		updates["delivered_at"] = now
		updates["cancelled_at"] = nil
		updates["cancellation_reason"] = nil
	case enums.OrderStatusCancelled:
		updates["cancelled_at"] = now
		if input.CancellationReason != nil {
			updates["cancellation_reason"] = optional(*input.CancellationReason)
		}
	}
	return updates
}

func (s *service) UpdateAdminNotes(ctx context.Context, orderID uuid.UUID, notes string) (*OrderDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.UpdateFields(ctx, orderID, map[string]any{"admin_notes": optional(notes)})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update admin notes")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		updated, err = repo.FindByID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "update admin notes")
	}
	return NewOrderDTO(updated), nil
}

func (s *service) GetAdminOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return NewOrderDTO(order), nil
}

func (s *service) ListAdmin(ctx context.Context, filters AdminOrderFilters, params pagination.PageParams) (*OrderPage, error) {
	params = params.Normalize()
	rows, total, err := s.repo.ListAdmin(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newPage(rows, total, params), nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.PageParams) (*OrderPage, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	params = params.Normalize()
	rows, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newPage(rows, total, params), nil
}

// GetForUser returns an order only to the account that placed it.
func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another account")
	}
	return NewOrderDTO(order), nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func newPage(rows []models.Order, total int64, params pagination.PageParams) *OrderPage {
	page := &OrderPage{
		Orders:     make([]OrderSummary, 0, len(rows)),
		Page:       params.Page,
		PageSize:   params.PageSize,
		Total:      total,
		TotalPages: pagination.TotalPages(total, params.PageSize),
	}
	for _, row := range rows {
		page.Orders = append(page.Orders, newSummary(row))
	}
	return page
}

func validateGuestInput(input GuestOrderInput) error {
	if strings.TrimSpace(input.SessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session not found")
	}
	if input.CartID == uuid.Nil || len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	missing := []string{}
	if strings.TrimSpace(input.Customer.Name) == "" {
		missing = append(missing, "customerName")
	}
	if strings.TrimSpace(input.Customer.Email) == "" {
		missing = append(missing, "customerEmail")
	}
	if strings.TrimSpace(input.ShippingAddress.StreetAddress) == "" {
		missing = append(missing, "fullAddress")
	}
	if strings.TrimSpace(input.ShippingAddress.City) == "" {
		missing = append(missing, "city")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout details are incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func guestSnapshot(in address.AddressInput, phone string) types.AddressSnapshot {
	country := strings.ToUpper(strings.TrimSpace(in.Country))
	if country == "" {
		country = "ID"
	}
	return types.AddressSnapshot{
		AddressLabel: strings.TrimSpace(in.AddressLabel),
		Phone:        phone,
		FullAddress:  strings.TrimSpace(in.StreetAddress),
		Village:      strings.TrimSpace(in.Village),
		District:     strings.TrimSpace(in.District),
		City:         strings.TrimSpace(in.City),
		Province:     strings.TrimSpace(in.State),
		PostalCode:   strings.TrimSpace(in.PostalCode),
		Country:      country,
		ProvinceCode: strings.TrimSpace(in.ProvinceCode),
		RegencyCode:  strings.TrimSpace(in.RegencyCode),
		DistrictCode: strings.TrimSpace(in.DistrictCode),
		VillageCode:  strings.TrimSpace(in.VillageCode),
	}
}

func carrierLabel(in ShippingInput) *string {
	courier := strings.TrimSpace(in.Courier)
	if courier == "" {
		return nil
	}
	if service := strings.TrimSpace(in.Service); service != "" {
		courier = courier + " - " + service
	}
	return &courier
}

func emailTaken() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "email already registered")
}

func outOfStock(missing []reservation.InventoryReservationResult) error {
	products := make([]string, 0, len(missing))
	for _, m := range missing {
		products = append(products, m.ProductID.String())
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
		WithDetails(map[string]any{
			"type":       enums.CartErrorOutOfStock,
			"productIds": products,
		})
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func asTyped(err error, msg string) error {
	if err == nil || pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
