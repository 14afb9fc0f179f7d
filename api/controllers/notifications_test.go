package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubNotificationService struct {
	lastList   notifications.ListParams
	lastUser   uuid.UUID
	lastMarked uuid.UUID
	markErr    error
}

func (s *stubNotificationService) List(_ context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	s.lastList = params
	return &notifications.ListResult{
		Items:       []models.Notification{{ID: uuid.New(), Title: "Order shipped"}},
		UnreadCount: 1,
	}, nil
}

func (s *stubNotificationService) MarkRead(_ context.Context, userID, notificationID uuid.UUID) error {
	s.lastUser = userID
	s.lastMarked = notificationID
	return s.markErr
}

func (s *stubNotificationService) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	s.lastUser = userID
	return 2, nil
}

func TestNotificationListPassesQuery(t *testing.T) {
	svc := &stubNotificationService{}
	userID := uuid.New()
	req := withUser(httptest.NewRequest(http.MethodGet, "/notifications?limit=5&unread=true&cursor=abc", nil), userID.String())
	rec := httptest.NewRecorder()

	NotificationList(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.lastList.UserID != userID || svc.lastList.Limit != 5 || !svc.lastList.UnreadOnly || svc.lastList.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", svc.lastList)
	}
	var body struct {
		Items       []map[string]any `json:"items"`
		UnreadCount int              `json:"unreadCount"`
	}
	decodeData(t, rec, &body)
	if len(body.Items) != 1 || body.UnreadCount != 1 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestNotificationListRejectsBadQuery(t *testing.T) {
	for _, target := range []string{"/notifications?unread=maybe", "/notifications?limit=0"} {
		req := withUser(httptest.NewRequest(http.MethodGet, target, nil), uuid.NewString())
		rec := httptest.NewRecorder()
		NotificationList(&stubNotificationService{}, testLogger()).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestNotificationListRequiresUser(t *testing.T) {
	rec := httptest.NewRecorder()
	NotificationList(&stubNotificationService{}, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestNotificationMarkRead(t *testing.T) {
	svc := &stubNotificationService{}
	userID, notificationID := uuid.New(), uuid.New()
	req := withUser(httptest.NewRequest(http.MethodPatch, "/notifications/x/read", nil), userID.String())
	req = withURLParams(req, map[string]string{"notificationId": notificationID.String()})
	rec := httptest.NewRecorder()

	NotificationMarkRead(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastUser != userID || svc.lastMarked != notificationID {
		t.Fatalf("unexpected mark call user=%s id=%s", svc.lastUser, svc.lastMarked)
	}
}

func TestNotificationMarkReadNotFound(t *testing.T) {
	svc := &stubNotificationService{markErr: pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")}
	req := withUser(httptest.NewRequest(http.MethodPatch, "/notifications/x/read", nil), uuid.NewString())
	req = withURLParams(req, map[string]string{"notificationId": uuid.NewString()})
	rec := httptest.NewRecorder()

	NotificationMarkRead(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound || errorCode(t, rec) != string(pkgerrors.CodeNotFound) {
		t.Fatalf("expected 404 NOT_FOUND, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestNotificationMarkAllRead(t *testing.T) {
	svc := &stubNotificationService{}
	userID := uuid.New()
	req := withUser(httptest.NewRequest(http.MethodPost, "/notifications/read-all", nil), userID.String())
	rec := httptest.NewRecorder()

	NotificationMarkAllRead(svc, testLogger()).ServeHTTP(rec, req)

	var body struct {
		Updated int `json:"updated"`
	}
	decodeData(t, rec, &body)
	if body.Updated != 2 || svc.lastUser != userID {
		t.Fatalf("unexpected result %+v user=%s", body, svc.lastUser)
	}
}

func TestNotificationHandlersWithoutService(t *testing.T) {
	rec := httptest.NewRecorder()
	NotificationMarkAllRead(nil, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notifications/read-all", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
