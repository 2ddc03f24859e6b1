package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/festhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID         string
	ExternalID string
	Name       string
	Email      string
	Role       string
}

// AdminUser returns a TestUser with admin role.
func AdminUser() TestUser {
	return TestUser{
		ID:         primitive.NewObjectID().Hex(),
		ExternalID: "google-admin",
		Name:       "Test Admin",
		Email:      "admin@test.com",
		Role:       "admin",
	}
}

// AttendeeUser returns a TestUser with attendee role for the given subject id.
func AttendeeUser(externalID string) TestUser {
	return TestUser{
		ID:         primitive.NewObjectID().Hex(),
		ExternalID: externalID,
		Name:       "Test Attendee",
		Email:      "attendee@test.com",
		Role:       "attendee",
	}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:         user.ID,
		ExternalID: user.ExternalID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
	})
}

// NewJSONRequest creates a request whose body is the JSON encoding of body.
func NewJSONRequest(method, target string, body any) *http.Request {
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		rd = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DecodeBody unmarshals a recorder's body into a generic map.
func DecodeBody(t interface {
	Helper()
	Fatalf(string, ...any)
}, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to parse response JSON %q: %v", rec.Body.String(), err)
	}
	return out
}
