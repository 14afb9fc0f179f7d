package orders

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

// CustomerInput is the contact data a guest supplies at checkout.
type CustomerInput struct {
	Name  string
	Email string
	Phone string
}

// ShippingInput selects the courier and overrides the shipping cost. A nil
// Cost falls back to the configured default.
type ShippingInput struct {
	Courier string
	Service string
	Cost    *int
}

// GuestOrderInput carries everything needed to turn an anonymous cart into an
// order and a new account.
type GuestOrderInput struct {
	CartID          uuid.UUID
	SessionID       string
	Items           []models.CartItem
	Customer        CustomerInput
	ShippingAddress address.AddressInput
	Shipping        ShippingInput
	Notes           string
}

// AuthenticatedOrderInput converts a signed-in user's cart using one of their
// saved addresses.
type AuthenticatedOrderInput struct {
	UserID    uuid.UUID
	CartID    uuid.UUID
	Items     []models.CartItem
	AddressID uuid.UUID
	Shipping  ShippingInput
	Notes     string
}

// CreatedOrder is returned once the checkout transaction commits.
type CreatedOrder struct {
	OrderID     uuid.UUID
	OrderNumber string
	UserID      uuid.UUID
	NewUser     bool
	Order       *models.Order
}

// UpdateStatusInput moves an order through its lifecycle. Tracking data is
// only applied on shipped; Reason only on cancelled.
type UpdateStatusInput struct {
	Status             enums.OrderStatus
	TrackingNumber     *string
	Carrier            *string
	CancellationReason *string
	ActorUserID        *uuid.UUID
}

// AdminOrderFilters narrow the back-office list and export. Nil statuses mean
// no filter.
type AdminOrderFilters struct {
	Search        string
	OrderStatus   *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
}

// ParseAdminOrderFilters accepts the raw query values; "all" and empty mean
// no filter.
func ParseAdminOrderFilters(search, orderStatus, paymentStatus string) (AdminOrderFilters, error) {
	filters := AdminOrderFilters{Search: search}
	if orderStatus != "" && orderStatus != "all" {
		status, err := enums.ParseOrderStatus(orderStatus)
		if err != nil {
			return AdminOrderFilters{}, err
		}
		filters.OrderStatus = &status
	}
	if paymentStatus != "" && paymentStatus != "all" {
		status, err := enums.ParsePaymentStatus(paymentStatus)
		if err != nil {
			return AdminOrderFilters{}, err
		}
		filters.PaymentStatus = &status
	}
	return filters, nil
}

// OrderItemDTO is the public view of an order line.
type OrderItemDTO struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   *uuid.UUID `json:"productId,omitempty"`
	ProductName string     `json:"productName"`
	ProductSKU  string     `json:"productSku"`
	ImageURL    *string    `json:"imageUrl,omitempty"`
	Quantity    int        `json:"quantity"`
	UnitPrice   int        `json:"unitPrice"`
	Subtotal    int        `json:"subtotal"`
}

// OrderDTO is the full order view shared by the customer and admin surfaces.
type OrderDTO struct {
	ID                 uuid.UUID             `json:"id"`
	OrderNumber        string                `json:"orderNumber"`
	UserID             uuid.UUID             `json:"userId"`
	CustomerEmail      string                `json:"customerEmail"`
	CustomerName       string                `json:"customerName"`
	CustomerPhone      *string               `json:"customerPhone,omitempty"`
	ShippingAddress    types.AddressSnapshot `json:"shippingAddress"`
	BillingAddress     types.AddressSnapshot `json:"billingAddress"`
	Subtotal           int                   `json:"subtotal"`
	Tax                int                   `json:"tax"`
	ShippingCost       int                   `json:"shippingCost"`
	Discount           int                   `json:"discount"`
	Total              int                   `json:"total"`
	Currency           string                `json:"currency"`
	OrderStatus        enums.OrderStatus     `json:"orderStatus"`
	PaymentStatus      enums.PaymentStatus   `json:"paymentStatus"`
	PaymentMethod      *string               `json:"paymentMethod,omitempty"`
	TrackingNumber     *string               `json:"trackingNumber,omitempty"`
	Carrier            *string               `json:"carrier,omitempty"`
	CustomerNotes      *string               `json:"customerNotes,omitempty"`
	AdminNotes         *string               `json:"adminNotes,omitempty"`
	CancellationReason *string               `json:"cancellationReason,omitempty"`
	PaidAt             *time.Time            `json:"paidAt,omitempty"`
	ShippedAt          *time.Time            `json:"shippedAt,omitempty"`
	DeliveredAt        *time.Time            `json:"deliveredAt,omitempty"`
	CancelledAt        *time.Time            `json:"cancelledAt,omitempty"`
	Items              []OrderItemDTO        `json:"items"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

// NewOrderDTO maps an order row (with preloaded items) to its public view.
func NewOrderDTO(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		UserID:             o.UserID,
		CustomerEmail:      o.CustomerEmail,
		CustomerName:       o.CustomerName,
		CustomerPhone:      o.CustomerPhone,
		ShippingAddress:    o.ShippingAddress,
		BillingAddress:     o.BillingAddress,
		Subtotal:           o.Subtotal,
		Tax:                o.Tax,
		ShippingCost:       o.ShippingCost,
		Discount:           o.Discount,
		Total:              o.Total,
		Currency:           o.Currency,
		OrderStatus:        o.OrderStatus,
		PaymentStatus:      o.PaymentStatus,
		PaymentMethod:      o.PaymentMethod,
		TrackingNumber:     o.TrackingNumber,
		Carrier:            o.Carrier,
		CustomerNotes:      o.CustomerNotes,
		AdminNotes:         o.AdminNotes,
		CancellationReason: o.CancellationReason,
		PaidAt:             o.PaidAt,
		ShippedAt:          o.ShippedAt,
		DeliveredAt:        o.DeliveredAt,
		CancelledAt:        o.CancelledAt,
		Items:              make([]OrderItemDTO, 0, len(o.Items)),
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			ImageURL:    item.ImageURL,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}
	return dto
}

// OrderSummary is the list row for customer and admin order lists.
type OrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"orderNumber"`
	CustomerName  string              `json:"customerName"`
	CustomerEmail string              `json:"customerEmail"`
	Total         int                 `json:"total"`
	Currency      string              `json:"currency"`
	OrderStatus   enums.OrderStatus   `json:"orderStatus"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	ItemCount     int                 `json:"itemCount"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// OrderPage wraps one page of order summaries.
type OrderPage struct {
	Orders     []OrderSummary `json:"orders"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	Total      int64          `json:"total"`
	TotalPages int            `json:"totalPages"`
}

func newSummary(o models.Order) OrderSummary {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return OrderSummary{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Total:         o.Total,
		Currency:      o.Currency,
		OrderStatus:   o.OrderStatus,
		PaymentStatus: o.PaymentStatus,
		ItemCount:     count,
		CreatedAt:     o.CreatedAt,
	}
}

// ExportRow is one line of the order export: an order joined with one of its
// items.
type ExportRow struct {
	OrderNumber     string
	CreatedAt       time.Time
	CustomerName    string
	CustomerEmail   string
	ShippingAddress types.AddressSnapshot
	ProductName     string
	ProductSKU      string
	Quantity        int
	UnitPrice       int
	ItemSubtotal    int
	Subtotal        int
	ShippingCost    int
	Total           int
	OrderStatus     string
	PaymentStatus   string
	Carrier         string
	TrackingNumber  string
	CustomerNotes   string
	AdminNotes      string
}
