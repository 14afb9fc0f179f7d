package product

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const msgNoMatchingProduct = "no product matches the selected variants"

// Service exposes the variant availability engine and product lookups.
type Service interface {
	ValidCombinations(ctx context.Context, groupID uuid.UUID) (*ValidVariantCombinations, error)
	FindByVariants(ctx context.Context, groupID uuid.UUID, selections types.VariantSelections) (*models.Product, error)
	ValidateSelection(ctx context.Context, product *models.Product, selections types.VariantSelections) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
}

type service struct {
	repo CatalogRepository
}

// NewService builds the catalog service.
func NewService(repo CatalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// ValidCombinations lists every active product of the group with its
// variant values and marks which axis values can currently be bought.
func (s *service) ValidCombinations(ctx context.Context, groupID uuid.UUID) (*ValidVariantCombinations, error) {
	if _, err := s.loadGroup(ctx, groupID); err != nil {
		return nil, err
	}

	variants, err := s.repo.ListGroupVariants(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product variants")
	}
	products, err := s.repo.ListGroupProducts(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group products")
	}

	availability := map[string]map[string]bool{}
	for _, v := range variants {
		values, ok := availability[v.Variant]
		if !ok {
			values = map[string]bool{}
			availability[v.Variant] = values
		}
		values[v.Value] = false
	}

	combinations := make([]VariantCombination, 0, len(products))
	for _, item := range products {
		inStock := item.Product.Stock > 0
		for axis, value := range item.Variants {
			values, ok := availability[axis]
			if !ok {
				continue
			}
			if inStock {
				values[value] = true
			} else if _, listed := values[value]; !listed {
				values[value] = false
			}
		}
		combinations = append(combinations, VariantCombination{
			ProductID: item.Product.ID,
			SKU:       item.Product.SKU,
			Variants:  item.Variants,
			Price:     item.Product.Price,
			Stock:     item.Product.Stock,
			IsActive:  item.Product.IsActive,
		})
	}

	return &ValidVariantCombinations{
		VariantTypes:    axesOf(variants),
		AvailabilityMap: availability,
		Combinations:    combinations,
	}, nil
}

// FindByVariants resolves a full selection to the product carrying exactly
// those axis values. Partial selections never match.
func (s *service) FindByVariants(ctx context.Context, groupID uuid.UUID, selections types.VariantSelections) (*models.Product, error) {
	if len(selections) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant selections are required")
	}
	if _, err := s.loadGroup(ctx, groupID); err != nil {
		return nil, err
	}

	variants, err := s.repo.ListGroupVariants(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product variants")
	}
	for _, axis := range axesOf(variants) {
		if _, ok := selections[axis]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNoMatchingProduct)
		}
	}

	products, err := s.repo.ListGroupProducts(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group products")
	}
	for _, item := range products {
		if matchesSelection(item.Variants, selections) {
			product := item.Product
			return &product, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNoMatchingProduct)
}

// ValidateSelection checks that selections resolve to the given product.
// Products without variants accept an empty selection.
func (s *service) ValidateSelection(ctx context.Context, product *models.Product, selections types.VariantSelections) error {
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	if len(selections) == 0 {
		variants, err := s.repo.ListGroupVariants(ctx, product.ProductGroupID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product variants")
		}
		if len(variants) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant selections are required")
		}
		return nil
	}

	match, err := s.FindByVariants(ctx, product.ProductGroupID, selections)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid variant combination")
		}
		return err
	}
	if match.ID != product.ID {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid variant combination")
	}
	return nil
}

// GetProduct returns the product regardless of its active flags; callers
// decide whether it is purchasable.
func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) loadGroup(ctx context.Context, groupID uuid.UUID) (*models.ProductGroup, error) {
	if groupID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product group id is required")
	}
	group, err := s.repo.FindGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product group not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product group")
	}
	return group, nil
}

func axesOf(variants []models.ProductVariant) []string {
	seen := map[string]struct{}{}
	axes := make([]string, 0, len(variants))
	for _, v := range variants {
		if _, ok := seen[v.Variant]; ok {
			continue
		}
		seen[v.Variant] = struct{}{}
		axes = append(axes, v.Variant)
	}
	sort.Strings(axes)
	return axes
}

// matchesSelection requires the product's variant map and the selection to
// carry the same axes with equal values.
func matchesSelection(productVariants, selections types.VariantSelections) bool {
	if len(productVariants) == 0 || len(productVariants) != len(selections) {
		return false
	}
	for axis, value := range productVariants {
		if selections[axis] != value {
			return false
		}
	}
	return true
}
