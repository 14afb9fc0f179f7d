package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/payment"
)

type stubPaymentService struct {
	session *payments.PaymentSession
	result  *payments.NotificationResult
	err     error

	lastUserID       uuid.UUID
	lastOrderID      uuid.UUID
	lastNotification *payment.Notification
}

func (s *stubPaymentService) IssueToken(_ context.Context, orderID uuid.UUID) (*payments.PaymentSession, error) {
	s.lastOrderID = orderID
	return s.session, s.err
}

func (s *stubPaymentService) Retry(_ context.Context, userID, orderID uuid.UUID) (*payments.PaymentSession, error) {
	s.lastUserID = userID
	s.lastOrderID = orderID
	return s.session, s.err
}

func (s *stubPaymentService) HandleNotification(_ context.Context, n payment.Notification) (*payments.NotificationResult, error) {
	s.lastNotification = &n
	return s.result, s.err
}

func (s *stubPaymentService) RefreshStatus(_ context.Context, userID, orderID uuid.UUID) (*payments.NotificationResult, error) {
	s.lastUserID = userID
	s.lastOrderID = orderID
	return s.result, s.err
}

func TestPaymentRetry(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &stubPaymentService{session: &payments.PaymentSession{OrderID: orderID, SnapToken: "tok", PaymentURL: "https://pay.example/tok"}}
	handler := PaymentRetry(svc, testLogger())

	body := `{"orderId":"` + orderID.String() + `"}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/payments/retry", strings.NewReader(body)), userID.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastUserID != userID || svc.lastOrderID != orderID {
		t.Fatalf("unexpected retry call user=%s order=%s", svc.lastUserID, svc.lastOrderID)
	}

	var session payments.PaymentSession
	decodeData(t, rec, &session)
	if session.SnapToken != "tok" {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestPaymentRetryRateLimited(t *testing.T) {
	svc := &stubPaymentService{err: pkgerrors.New(pkgerrors.CodeRateLimit, "too many payment attempts")}
	handler := PaymentRetry(svc, testLogger())

	body := `{"orderId":"` + uuid.NewString() + `"}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/payments/retry", strings.NewReader(body)), uuid.NewString())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestPaymentNotificationAcceptsUnknownFields(t *testing.T) {
	svc := &stubPaymentService{result: &payments.NotificationResult{
		PaymentStatus: enums.PaymentStatusPaid,
		OrderStatus:   enums.OrderStatusProcessing,
		Changed:       true,
	}}
	handler := PaymentNotification(svc, testLogger())

	body := `{
		"order_id": "ORD-20260314-0001-1700000000001",
		"transaction_status": "settlement",
		"status_code": "200",
		"gross_amount": "265000.00",
		"signature_key": "abc",
		"currency": "IDR",
		"settlement_time": "2026-03-14 10:00:00"
	}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/payments/notification", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastNotification == nil || svc.lastNotification.TransactionStatus != "settlement" || svc.lastNotification.GrossAmount != "265000.00" {
		t.Fatalf("unexpected notification %+v", svc.lastNotification)
	}
}

func TestPaymentNotificationRequiresSignature(t *testing.T) {
	svc := &stubPaymentService{}
	handler := PaymentNotification(svc, testLogger())

	body := `{"order_id":"ORD-1","transaction_status":"settlement","status_code":"200","gross_amount":"1.00"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/payments/notification", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.lastNotification != nil {
		t.Fatalf("service should not be called")
	}
}

func TestPaymentNotificationBadSignature(t *testing.T) {
	svc := &stubPaymentService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid signature")}
	handler := PaymentNotification(svc, testLogger())

	body := `{"order_id":"ORD-1","transaction_status":"settlement","status_code":"200","gross_amount":"1.00","signature_key":"nope"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/payments/notification", strings.NewReader(body)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestPaymentRefresh(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &stubPaymentService{result: &payments.NotificationResult{OrderID: orderID, PaymentStatus: enums.PaymentStatusPending}}
	handler := PaymentRefresh(svc, testLogger())

	req := withUser(httptest.NewRequest(http.MethodPost, "/", nil), userID.String())
	req = withURLParams(req, map[string]string{"orderId": orderID.String()})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastUserID != userID || svc.lastOrderID != orderID {
		t.Fatalf("unexpected refresh call")
	}
}
