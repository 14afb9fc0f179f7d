package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/address"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubAddressService struct {
	address.Service

	list    []address.AddressDTO
	created *address.AddressDTO
	err     error

	lastUserID    uuid.UUID
	lastAddressID uuid.UUID
	lastInput     address.AddressInput
	deleted       bool
}

func (s *stubAddressService) List(_ context.Context, userID uuid.UUID) ([]address.AddressDTO, error) {
	s.lastUserID = userID
	return s.list, s.err
}

func (s *stubAddressService) Create(_ context.Context, userID uuid.UUID, input address.AddressInput) (*address.AddressDTO, error) {
	s.lastUserID = userID
	s.lastInput = input
	return s.created, s.err
}

func (s *stubAddressService) SetDefault(_ context.Context, userID, addressID uuid.UUID) (*address.AddressDTO, error) {
	s.lastUserID = userID
	s.lastAddressID = addressID
	return s.created, s.err
}

func (s *stubAddressService) Delete(_ context.Context, userID, addressID uuid.UUID) error {
	s.lastUserID = userID
	s.lastAddressID = addressID
	s.deleted = s.err == nil
	return s.err
}

func TestAddressList(t *testing.T) {
	userID := uuid.New()
	svc := &stubAddressService{list: []address.AddressDTO{{ID: uuid.New(), AddressLabel: "Rumah", IsDefault: true}}}
	handler := AddressList(svc, testLogger())

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/addresses", nil), userID.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Addresses []address.AddressDTO `json:"addresses"`
	}
	decodeData(t, rec, &body)
	if len(body.Addresses) != 1 || !body.Addresses[0].IsDefault {
		t.Fatalf("unexpected addresses %+v", body.Addresses)
	}
}

func TestAddressCreateDefaultsCountry(t *testing.T) {
	svc := &stubAddressService{created: &address.AddressDTO{ID: uuid.New()}}
	handler := AddressCreate(svc, testLogger())

	body := `{"addressLabel":"Kantor","streetAddress":"Jl. Thamrin 10","village":"Gondangdia","district":"Menteng","city":"Jakarta Pusat","state":"DKI Jakarta","postalCode":"10350"}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/addresses", strings.NewReader(body)), uuid.NewString())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastInput.Country != "ID" || svc.lastInput.City != "Jakarta Pusat" {
		t.Fatalf("unexpected input %+v", svc.lastInput)
	}
}

func TestAddressCreateValidation(t *testing.T) {
	svc := &stubAddressService{}
	handler := AddressCreate(svc, testLogger())

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/addresses", strings.NewReader(`{"addressLabel":"Kantor"}`)), uuid.NewString())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAddressSetDefault(t *testing.T) {
	addressID := uuid.New()
	svc := &stubAddressService{created: &address.AddressDTO{ID: addressID, IsDefault: true}}
	handler := AddressSetDefault(svc, testLogger())

	req := withUser(httptest.NewRequest(http.MethodPatch, "/", nil), uuid.NewString())
	req = withURLParams(req, map[string]string{"addressId": addressID.String()})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastAddressID != addressID {
		t.Fatalf("expected address id forwarded")
	}
}

func TestAddressDelete(t *testing.T) {
	svc := &stubAddressService{}
	handler := AddressDelete(svc, testLogger())

	req := withUser(httptest.NewRequest(http.MethodDelete, "/", nil), uuid.NewString())
	req = withURLParams(req, map[string]string{"addressId": uuid.NewString()})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !svc.deleted {
		t.Fatalf("expected delete call")
	}
}

func TestAddressDeleteForeign(t *testing.T) {
	svc := &stubAddressService{err: pkgerrors.New(pkgerrors.CodeNotFound, "address not found")}
	handler := AddressDelete(svc, testLogger())

	req := withUser(httptest.NewRequest(http.MethodDelete, "/", nil), uuid.NewString())
	req = withURLParams(req, map[string]string{"addressId": uuid.NewString()})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
