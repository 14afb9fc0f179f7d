package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a user's address book. A user has at most one default
// address; the first saved address becomes the default.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*AddressDTO, error)
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*AddressDTO, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	CreateFromCheckout(ctx context.Context, input CheckoutAddressInput) (*AddressDTO, error)
	GetForOwner(ctx context.Context, tx *gorm.DB, addressID, userID uuid.UUID) (*models.Address, error)
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService builds the address book service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*AddressDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	row, err := s.insert(ctx, userID, input, input.IsDefault)
	if err != nil {
		return nil, err
	}
	return FromModel(row), nil
}

// CreateFromCheckout remembers a checkout shipping address. Callers run it
// after the order commits and treat failures as non-fatal.
func (s *service) CreateFromCheckout(ctx context.Context, input CheckoutAddressInput) (*AddressDTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := validateInput(input.AddressInput); err != nil {
		return nil, err
	}
	row, err := s.insert(ctx, input.UserID, input.AddressInput, false)
	if err != nil {
		return nil, err
	}
	return FromModel(row), nil
}

func (s *service) SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*AddressDTO, error) {
	var updated *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.findForOwner(ctx, repo, addressID, userID); err != nil {
			return err
		}
		if err := repo.ClearDefault(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
		}
		if _, err := repo.MarkDefault(ctx, addressID, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark default address")
		}
		row, err := s.findForOwner(ctx, repo, addressID, userID)
		if err != nil {
			return err
		}
		updated = row
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "set default address")
	}
	return FromModel(updated), nil
}

// Delete removes an address. When it was the default, the oldest remaining
// address takes over.
func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := s.findForOwner(ctx, repo, addressID, userID)
		if err != nil {
			return err
		}
		if _, err := repo.Delete(ctx, addressID, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
		}
		if !row.IsDefault {
			return nil
		}
		next, err := repo.OldestForUser(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load next default address")
		}
		if _, err := repo.MarkDefault(ctx, next.ID, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark default address")
		}
		return nil
	})
	return asTyped(err, "delete address")
}

// GetForOwner loads an address on tx (or the default connection when tx is
// nil) and rejects addresses owned by someone else.
func (s *service) GetForOwner(ctx context.Context, tx *gorm.DB, addressID, userID uuid.UUID) (*models.Address, error) {
	row, err := s.findForOwner(ctx, s.repo.WithTx(tx), addressID, userID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is invalid or not found")
		}
		return nil, err
	}
	return row, nil
}

func (s *service) insert(ctx context.Context, userID uuid.UUID, input AddressInput, makeDefault bool) (*models.Address, error) {
	row := input.toModel(userID)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.CountByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count addresses")
		}
		if count == 0 {
			makeDefault = true
		}
		if makeDefault && count > 0 {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
			}
		}
		row.IsDefault = makeDefault
		if err := repo.Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert address")
		}
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "insert address")
	}
	return row, nil
}

func (s *service) findForOwner(ctx context.Context, repo *Repository, addressID, userID uuid.UUID) (*models.Address, error) {
	if addressID == uuid.Nil || userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id and user id are required")
	}
	row, err := repo.FindForOwner(ctx, addressID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return row, nil
}

func validateInput(in AddressInput) error {
	required := map[string]string{
		"addressLabel":  in.AddressLabel,
		"streetAddress": in.StreetAddress,
		"village":       in.Village,
		"district":      in.District,
		"city":          in.City,
		"state":         in.State,
		"postalCode":    in.PostalCode,
	}
	missing := []string{}
	for _, field := range []string{"addressLabel", "streetAddress", "village", "district", "city", "state", "postalCode"} {
		if strings.TrimSpace(required[field]) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func asTyped(err error, msg string) error {
	if err == nil || pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
