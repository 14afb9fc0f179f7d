package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// User is a storefront customer or back-office operator.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string         `gorm:"column:name;not null"`
	Email        string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	Phone        *string        `gorm:"column:phone"`
	PasswordHash *string        `gorm:"column:password_hash"`
	Role         enums.UserRole `gorm:"column:role;not null;default:'user'"`
	IsConfirmed  bool           `gorm:"column:is_confirmed;not null;default:false"`
	IsActive     bool           `gorm:"column:is_active;not null"`
	IsDeleted    bool           `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
