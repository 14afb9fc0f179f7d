package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderCreatedEvent is emitted once an order and its items are committed.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	UserID        uuid.UUID           `json:"user_id"`
	CustomerEmail string              `json:"customer_email"`
	GuestCheckout bool                `json:"guest_checkout"`
	ItemCount     int                 `json:"item_count"`
	Subtotal      int                 `json:"subtotal"`
	ShippingCost  int                 `json:"shipping_cost"`
	Total         int                 `json:"total"`
	Currency      string              `json:"currency"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
}

// OrderStatusChangedEvent records a transition of the order status machine.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	UserID         uuid.UUID         `json:"user_id"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Status         enums.OrderStatus `json:"status"`
	TrackingNumber *string           `json:"tracking_number,omitempty"`
	Reason         *string           `json:"reason,omitempty"`
	ChangedAt      time.Time         `json:"changed_at"`
}

// OrderPaidEvent is emitted the first time the gateway settles an order.
type OrderPaidEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	UserID         uuid.UUID `json:"user_id"`
	PaymentOrderID string    `json:"payment_order_id"`
	PaymentMethod  string    `json:"payment_method,omitempty"`
	Amount         int       `json:"amount"`
	PaidAt         time.Time `json:"paid_at"`
}

// PaymentFailedEvent is emitted when the gateway denies, expires or cancels a payment.
type PaymentFailedEvent struct {
	OrderID           uuid.UUID `json:"order_id"`
	OrderNumber       string    `json:"order_number"`
	UserID            uuid.UUID `json:"user_id"`
	PaymentOrderID    string    `json:"payment_order_id"`
	TransactionStatus string    `json:"transaction_status"`
}
