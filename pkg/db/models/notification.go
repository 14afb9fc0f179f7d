package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Notification is an in-app message shown to a customer about one of their orders.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null" json:"-"`
	OrderID   *uuid.UUID             `gorm:"column:order_id;type:uuid" json:"orderId,omitempty"`
	EventID   uuid.UUID              `gorm:"column:event_id;type:uuid;not null" json:"-"`
	Type      enums.NotificationType `gorm:"column:type;not null" json:"type"`
	Title     string                 `gorm:"column:title;not null" json:"title"`
	Message   string                 `gorm:"column:message;not null" json:"message"`
	Link      *string                `gorm:"column:link" json:"link,omitempty"`
	ReadAt    *time.Time             `gorm:"column:read_at" json:"readAt,omitempty"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
