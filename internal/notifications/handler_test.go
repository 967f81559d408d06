package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/server/middleware"
)

func setupRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)

	svc := NewService(NewMemoryRepo())
	r := gin.New()
	r.Use(middleware.Auth())
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r, svc
}

func do(t *testing.T, r http.Handler, method, path, sub string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if sub != "" {
		token, err := auth.SignJWT(auth.Claims{Sub: sub, Role: "candidate"})
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func unread(t *testing.T, r http.Handler, sub string) int {
	t.Helper()
	resp := do(t, r, http.MethodGet, "/api/v1/notifications/unread-count", sub)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload struct {
		UnreadCount int `json:"unreadCount"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return payload.UnreadCount
}

func TestNotificationsFlow(t *testing.T) {
	r, svc := setupRouter(t)
	ctx := context.Background()

	first, err := svc.Notify(ctx, Notification{RecipientID: "u1", Title: "New application", Message: "Jane applied"})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if first.Type != TypeInfo || first.Priority != PriorityNormal {
		t.Fatalf("expected defaults, got %+v", first)
	}
	if _, err := svc.Notify(ctx, Notification{RecipientID: "u1", Title: "Shortlisted", Type: TypeSuccess}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if _, err := svc.Notify(ctx, Notification{RecipientID: "u2", Title: "Other"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if got := unread(t, r, "u1"); got != 2 {
		t.Fatalf("expected 2 unread, got %d", got)
	}

	if resp := do(t, r, http.MethodPost, "/api/v1/notifications/"+first.ID+"/read", "u2"); resp.Code != http.StatusNotFound {
		t.Fatalf("foreign read: expected 404, got %d", resp.Code)
	}
	if resp := do(t, r, http.MethodPost, "/api/v1/notifications/"+first.ID+"/read", "u1"); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if got := unread(t, r, "u1"); got != 1 {
		t.Fatalf("expected 1 unread, got %d", got)
	}

	resp := do(t, r, http.MethodGet, "/api/v1/notifications?unread=true", "u1")
	var list struct {
		Items []Notification `json:"items"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].Title != "Shortlisted" {
		t.Fatalf("unexpected unread list %+v", list.Items)
	}

	if resp := do(t, r, http.MethodPost, "/api/v1/notifications/read-all", "u1"); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := unread(t, r, "u1"); got != 0 {
		t.Fatalf("expected 0 unread, got %d", got)
	}
	if got := unread(t, r, "u2"); got != 1 {
		t.Fatalf("expected other user untouched, got %d", got)
	}
}

func TestNotificationsRequireAuth(t *testing.T) {
	r, _ := setupRouter(t)
	if resp := do(t, r, http.MethodGet, "/api/v1/notifications", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestNotifyValidation(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if _, err := svc.Notify(context.Background(), Notification{Title: "x"}); err == nil {
		t.Fatalf("expected error for missing recipient")
	}
	if _, err := svc.Notify(context.Background(), Notification{RecipientID: "u", Title: "x", Priority: "critical"}); err == nil {
		t.Fatalf("expected error for unknown priority")
	}
}
