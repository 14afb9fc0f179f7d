package users

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes read access to user profiles.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
}

type service struct {
	repo *Repository
}

// NewService builds the user profile service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

// Get returns the active profile of a user.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive || user.IsDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return FromModel(user), nil
}
