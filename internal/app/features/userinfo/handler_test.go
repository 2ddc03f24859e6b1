package userinfo_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/festhub/internal/app/features/userinfo"
	"github.com/dalemusser/festhub/internal/testutil"
	"github.com/go-chi/chi/v5"
)

func TestServeUserInfo_Unauthenticated(t *testing.T) {
	handler := userinfo.NewHandler()

	req := httptest.NewRequest("GET", "/api/userinfo", nil)
	rec := httptest.NewRecorder()
	handler.ServeUserInfo(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	body := testutil.DecodeBody(t, rec)
	if isAuth, ok := body["isAuthenticated"].(bool); !ok || isAuth {
		t.Errorf("isAuthenticated: got %v, want false", body["isAuthenticated"])
	}
	for _, key := range []string{"id", "externalId", "name", "email", "role"} {
		if v, _ := body[key].(string); v != "" {
			t.Errorf("%s: got %q, want empty", key, v)
		}
	}
}

func TestServeUserInfo_Authenticated(t *testing.T) {
	handler := userinfo.NewHandler()
	user := testutil.AttendeeUser("google-123")

	req := testutil.WithUser(httptest.NewRequest("GET", "/api/userinfo", nil), user)
	rec := httptest.NewRecorder()
	handler.ServeUserInfo(rec, req)

	body := testutil.DecodeBody(t, rec)
	if isAuth, ok := body["isAuthenticated"].(bool); !ok || !isAuth {
		t.Errorf("isAuthenticated: got %v, want true", body["isAuthenticated"])
	}
	want := map[string]string{
		"id":         user.ID,
		"externalId": "google-123",
		"name":       user.Name,
		"email":      user.Email,
		"role":       "attendee",
	}
	for key, v := range want {
		if got, _ := body[key].(string); got != v {
			t.Errorf("%s: got %q, want %q", key, got, v)
		}
	}
}

func TestMountRoutes(t *testing.T) {
	r := chi.NewRouter()
	userinfo.MountRoutes(r, userinfo.NewHandler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/userinfo", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/userinfo: got %d", rec.Code)
	}
}
