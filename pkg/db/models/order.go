package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is the immutable record of a completed checkout. Only status, payment
// and notes columns change after creation.
type Order struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber        string                `gorm:"column:order_number;not null;uniqueIndex"`
	UserID             uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	CustomerEmail      string                `gorm:"column:customer_email;not null"`
	CustomerName       string                `gorm:"column:customer_name;not null"`
	CustomerPhone      *string               `gorm:"column:customer_phone"`
	ShippingAddress    types.AddressSnapshot `gorm:"column:shipping_address;type:jsonb;not null"`
	BillingAddress     types.AddressSnapshot `gorm:"column:billing_address;type:jsonb;not null"`
	Subtotal           int                   `gorm:"column:subtotal;not null"`
	Tax                int                   `gorm:"column:tax;not null;default:0"`
	ShippingCost       int                   `gorm:"column:shipping_cost;not null;default:0"`
	Discount           int                   `gorm:"column:discount;not null;default:0"`
	Total              int                   `gorm:"column:total;not null"`
	Currency           string                `gorm:"column:currency;not null;default:'IDR'"`
	OrderStatus        enums.OrderStatus     `gorm:"column:order_status;not null;default:'pending'"`
	PaymentStatus      enums.PaymentStatus   `gorm:"column:payment_status;not null;default:'unpaid'"`
	PaymentMethod      *string               `gorm:"column:payment_method"`
	PaymentIntentID    *string               `gorm:"column:payment_intent_id"`
	PaymentOrderID     *string               `gorm:"column:payment_order_id;index"`
	PaymentToken       *string               `gorm:"column:payment_token"`
	TrackingNumber     *string               `gorm:"column:tracking_number"`
	Carrier            *string               `gorm:"column:carrier"`
	CustomerNotes      *string               `gorm:"column:customer_notes"`
	AdminNotes         *string               `gorm:"column:admin_notes"`
	CancellationReason *string               `gorm:"column:cancellation_reason"`
	PaidAt             *time.Time            `gorm:"column:paid_at"`
	ShippedAt          *time.Time            `gorm:"column:shipped_at"`
	DeliveredAt        *time.Time            `gorm:"column:delivered_at"`
	CancelledAt        *time.Time            `gorm:"column:cancelled_at"`
	Items              []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
