package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Phone       *string        `json:"phone,omitempty"`
	Role        enums.UserRole `json:"role"`
	IsConfirmed bool           `json:"isConfirmed"`
	IsActive    bool           `json:"isActive"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name         string
	Email        string
	Phone        *string
	PasswordHash string
	Role         enums.UserRole
	IsConfirmed  bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		IsConfirmed: u.IsConfirmed,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.UserRoleUser
	}

	var hash *string
	if c.PasswordHash != "" {
		h := c.PasswordHash
		hash = &h
	}

	return &models.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(c.Name),
		Email:        NormalizeEmail(c.Email),
		Phone:        c.Phone,
		PasswordHash: hash,
		Role:         role,
		IsConfirmed:  c.IsConfirmed,
		IsActive:     true,
	}
}
