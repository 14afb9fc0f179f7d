package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type stubProductService struct {
	combinations *productsvc.ValidVariantCombinations
	product      *models.Product
	err          error

	lastGroupID    uuid.UUID
	lastSelections types.VariantSelections
}

func (s *stubProductService) ValidCombinations(_ context.Context, groupID uuid.UUID) (*productsvc.ValidVariantCombinations, error) {
	s.lastGroupID = groupID
	return s.combinations, s.err
}

func (s *stubProductService) FindByVariants(_ context.Context, groupID uuid.UUID, selections types.VariantSelections) (*models.Product, error) {
	s.lastGroupID = groupID
	s.lastSelections = selections
	return s.product, s.err
}

func (s *stubProductService) ValidateSelection(context.Context, *models.Product, types.VariantSelections) error {
	return s.err
}

func (s *stubProductService) GetProduct(context.Context, uuid.UUID) (*models.Product, error) {
	return s.product, s.err
}

func TestProductValidCombinations(t *testing.T) {
	groupID := uuid.New()
	svc := &stubProductService{combinations: &productsvc.ValidVariantCombinations{
		VariantTypes: []string{"Color", "Size"},
		AvailabilityMap: map[string]map[string]bool{
			"Color": {"Putih": true, "Hitam": false},
			"Size":  {"L": true},
		},
	}}
	handler := ProductValidCombinations(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+groupID.String()+"/valid-combinations", nil)
	req = withURLParams(req, map[string]string{"groupId": groupID.String()})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastGroupID != groupID {
		t.Fatalf("expected group %s, got %s", groupID, svc.lastGroupID)
	}

	var got productsvc.ValidVariantCombinations
	decodeData(t, rec, &got)
	if got.AvailabilityMap["Color"]["Hitam"] {
		t.Fatalf("expected Hitam unavailable, got %+v", got.AvailabilityMap)
	}
}

func TestProductValidCombinationsInvalidGroup(t *testing.T) {
	handler := ProductValidCombinations(&stubProductService{}, testLogger())

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"groupId": "abc"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProductFindByVariants(t *testing.T) {
	groupID := uuid.New()
	svc := &stubProductService{product: &models.Product{
		ID:             uuid.New(),
		ProductGroupID: groupID,
		SKU:            "KL-PUT-L",
		Name:           "Kemeja Linen - Putih, L",
		Price:          125000,
		Stock:          3,
		IsActive:       true,
	}}
	handler := ProductFindByVariants(svc, testLogger())

	body := `{"variantSelections":{"Color":"Putih","Size":"L"}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req = withURLParams(req, map[string]string{"groupId": groupID.String()})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastSelections["Color"] != "Putih" {
		t.Fatalf("expected selections forwarded, got %v", svc.lastSelections)
	}

	var dto productsvc.ProductDTO
	decodeData(t, rec, &dto)
	if dto.SKU != "KL-PUT-L" || !dto.InStock {
		t.Fatalf("unexpected product %+v", dto)
	}
}

func TestProductFindByVariantsRequiresSelections(t *testing.T) {
	handler := ProductFindByVariants(&stubProductService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"variantSelections":{}}`))
	req = withURLParams(req, map[string]string{"groupId": uuid.NewString()})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProductFindByVariantsNoMatch(t *testing.T) {
	svc := &stubProductService{err: pkgerrors.New(pkgerrors.CodeNotFound, "no product matches the selected variants")}
	handler := ProductFindByVariants(svc, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"variantSelections":{"Color":"Merah"}}`))
	req = withURLParams(req, map[string]string{"groupId": uuid.NewString()})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %s", code)
	}
}
