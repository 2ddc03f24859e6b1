package events_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/festhub/internal/app/features/events"
	eventstore "github.com/dalemusser/festhub/internal/app/store/events"
	"github.com/dalemusser/festhub/internal/app/system/auth"
	"github.com/dalemusser/festhub/internal/app/system/indexes"
	"github.com/dalemusser/festhub/internal/app/system/ratelimit"
	"github.com/dalemusser/festhub/internal/app/system/scoring"
	"github.com/dalemusser/festhub/internal/domain/models"
	"github.com/dalemusser/festhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	eventstore.BcryptCost = bcrypt.MinCost
}

func newTestHandler(t *testing.T) (*events.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	svc := scoring.New(db, nil, zap.NewNop())
	return events.NewHandler(db, svc, nil, zap.NewNop()), testutil.NewFixtures(t, db)
}

func userPoints(t *testing.T, f *testutil.Fixtures, u models.User) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	var got models.User
	if err := f.DB().Collection("users").FindOne(ctx, bson.M{"_id": u.ID}).Decode(&got); err != nil {
		t.Fatalf("load user: %v", err)
	}
	return got.Points
}

// checkIn builds a gated POST /events/register.
func checkIn(userID, eventID, password string) *http.Request {
	req := testutil.NewJSONRequest("POST", "/events/register", map[string]string{"userId": userID, "eventId": eventID})
	if password != "" {
		req.Header.Set(events.PasswordHeader, password)
	}
	return req
}

func setEmail(t *testing.T, f *testutil.Fixtures, u models.User, email string) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := f.DB().Collection("users").UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{"email": email}}); err != nil {
		t.Fatalf("set email: %v", err)
	}
}

func TestList_OmitsPassword(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f.CreateEvent(ctx, "hackathon", "Hackathon", "s3cret")
	f.CreateEvent(ctx, "art", "Art Walk", "paint")

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/events", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, forbidden := range []string{"s3cret", "password", "$2a$"} {
		if strings.Contains(body, forbidden) {
			t.Errorf("response leaks %q: %s", forbidden, body)
		}
	}
	if strings.Index(body, "Art Walk") > strings.Index(body, "Hackathon") {
		t.Errorf("expected events sorted by name: %s", body)
	}
}

func TestList_EmptyIsArray(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/events", nil))
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body: got %q, want []", got)
	}
}

func TestGet_DualID(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e := f.CreateEvent(ctx, "quiz", "Quiz Bowl", "pw")

	for _, ref := range []string{"quiz", e.ID.Hex()} {
		req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/events/"+ref, nil), "eventId", ref)
		rec := httptest.NewRecorder()
		h.Get(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("ref %q: status %d", ref, rec.Code)
		}
		body := testutil.DecodeBody(t, rec)
		if body["id"] != "quiz" || body["title"] != "Quiz Bowl" {
			t.Errorf("ref %q: got %v", ref, body)
		}
	}
}

func TestGet_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/events/nope", nil), "eventId", "nope")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}
	body := testutil.DecodeBody(t, rec)
	if body["success"] != false || body["message"] == "" {
		t.Errorf("expected failure envelope, got %v", body)
	}
}

func TestRegister_ThenDuplicate(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := f.CreateUserWithExternalID(ctx, "google-42", "Asha", "IIT Delhi")
	f.CreateEvent(ctx, "robowars", "Robo Wars", "pw")

	for i, wantDup := range []bool{false, true, true} {
		rec := httptest.NewRecorder()
		h.Register(rec, checkIn("google-42", "robowars", "pw"))

		if rec.Code != http.StatusOK {
			t.Fatalf("call %d: status %d: %s", i, rec.Code, rec.Body.String())
		}
		body := testutil.DecodeBody(t, rec)
		if body["success"] != true || body["duplicate"] != wantDup {
			t.Errorf("call %d: got %v", i, body)
		}
		user, _ := body["user"].(map[string]any)
		if user["points"] != float64(1) {
			t.Errorf("call %d: user points got %v, want 1", i, user["points"])
		}
	}
	if got := userPoints(t, f, u); got != 1 {
		t.Errorf("stored points: got %d, want 1", got)
	}
}

func TestRegister_Errors(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := f.CreateUser(ctx, "Ravi", "K", "NIT", 0)
	f.CreateEvent(ctx, "chess", "Chess", "pw")

	tests := []struct {
		name     string
		body     any
		password string
		want     int
	}{
		{"bad json", "{", "pw", http.StatusBadRequest},
		{"missing user", map[string]string{"eventId": "chess"}, "pw", http.StatusBadRequest},
		{"missing event", map[string]string{"userId": u.ID.Hex()}, "pw", http.StatusBadRequest},
		{"unknown user", map[string]string{"userId": "ghost", "eventId": "chess"}, "pw", http.StatusNotFound},
		{"unknown event", map[string]string{"userId": u.ID.Hex(), "eventId": "nope"}, "pw", http.StatusNotFound},
		{"no password", map[string]string{"userId": u.ID.Hex(), "eventId": "chess"}, "", http.StatusUnauthorized},
		{"wrong password", map[string]string{"userId": u.ID.Hex(), "eventId": "chess"}, "checkmate", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest("POST", "/events/register", tt.body)
			if tt.password != "" {
				req.Header.Set(events.PasswordHeader, tt.password)
			}
			rec := httptest.NewRecorder()
			h.Register(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status: got %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if body := testutil.DecodeBody(t, rec); body["success"] != false {
				t.Errorf("expected success=false, got %v", body)
			}
		})
	}
	if got := userPoints(t, f, u); got != 0 {
		t.Errorf("points changed on refused check-ins: %d", got)
	}
}

func TestRegister_AdminSessionSkipsPassword(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := f.CreateUser(ctx, "Nisha", "T", "IIT Madras", 0)
	f.CreateEvent(ctx, "debate", "Debate", "pw")

	rec := httptest.NewRecorder()
	h.Register(rec, testutil.WithUser(checkIn(u.ID.Hex(), "debate", ""), testutil.AdminUser()))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	if got := userPoints(t, f, u); got != 1 {
		t.Errorf("stored points: got %d, want 1", got)
	}
}

func TestRegister_EmailOnlyForOwnerOrAdmin(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := f.CreateUserWithExternalID(ctx, "google-7", "Tara", "IISc")
	setEmail(t, f, u, "tara@example.com")
	f.CreateEvent(ctx, "poetry", "Poetry Slam", "pw")

	owner := testutil.AttendeeUser("google-7")
	owner.ID = u.ID.Hex()

	tests := []struct {
		name      string
		who       *testutil.TestUser
		wantEmail bool
	}{
		{"scanner with password", nil, false},
		{"other attendee", &testutil.TestUser{ID: "000000000000000000000001", ExternalID: "google-8", Role: models.RoleAttendee}, false},
		{"owner", &owner, true},
		{"admin", func() *testutil.TestUser { a := testutil.AdminUser(); return &a }(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := checkIn("google-7", "poetry", "pw")
			if tt.who != nil {
				req = testutil.WithUser(req, *tt.who)
			}
			rec := httptest.NewRecorder()
			h.Register(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
			}
			user, _ := testutil.DecodeBody(t, rec)["user"].(map[string]any)
			_, hasEmail := user["email"]
			if hasEmail != tt.wantEmail {
				t.Errorf("email present = %v, want %v (%v)", hasEmail, tt.wantEmail, user)
			}
			if strings.Contains(rec.Body.String(), "tara@example.com") != tt.wantEmail {
				t.Errorf("unexpected email exposure: %s", rec.Body.String())
			}
		})
	}
}

func TestRegister_GuardCountsOnlyFailedPasswords(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f.CreateEvent(ctx, "treasure", "Treasure Hunt", "pw")
	guard := ratelimit.New(3, time.Minute)
	defer guard.Stop()
	h.Guard = guard

	attendees := make([]models.User, 8)
	for i := range attendees {
		attendees[i] = f.CreateUser(ctx, "Scan", strconv.Itoa(i), "NIT Surat", 0)
	}

	send := func(userID, password, remote string) int {
		req := checkIn(userID, "treasure", password)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.Register(rec, req)
		return rec.Code
	}

	// A single scanner checks in a long queue, repeats included.
	for i := 0; i < 40; i++ {
		if code := send(attendees[i%len(attendees)].ID.Hex(), "pw", "10.9.9.9:5000"); code != http.StatusOK {
			t.Fatalf("check-in %d: got %d, want 200", i, code)
		}
	}
	for _, u := range attendees {
		if got := userPoints(t, f, u); got != 1 {
			t.Errorf("user %s: points %d, want 1", u.ID.Hex(), got)
		}
	}

	// Guessing is cut off after the budget, even if a later guess is right.
	for i := 0; i < 3; i++ {
		if code := send(attendees[0].ID.Hex(), "guess", "192.0.2.9:6000"); code != http.StatusUnauthorized {
			t.Errorf("guess %d: got %d, want 401", i, code)
		}
	}
	if code := send(attendees[0].ID.Hex(), "guess", "192.0.2.9:6000"); code != http.StatusTooManyRequests {
		t.Errorf("over budget: got %d, want 429", code)
	}
	if code := send(attendees[0].ID.Hex(), "pw", "192.0.2.9:6000"); code != http.StatusTooManyRequests {
		t.Errorf("right password while blocked: got %d, want 429", code)
	}
	if code := send(attendees[0].ID.Hex(), "pw", "10.9.9.9:5000"); code != http.StatusOK {
		t.Errorf("scanner after guessing elsewhere: got %d, want 200", code)
	}
}

func TestUsers_RequiresPassword(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := f.CreateUser(ctx, "Meera", "S", "BITS", 3)
	f.CreateEvent(ctx, "dance", "Dance Off", "groove")
	f.CreateRegistration(ctx, u.ID, "dance", models.Awards{ParticipationPoint: true, CompletedInTime: true})
	setEmail(t, f, u, "meera@example.com")

	tests := []struct {
		name     string
		password string
		admin    bool
		want     int
	}{
		{"no password", "", false, http.StatusUnauthorized},
		{"wrong password", "salsa", false, http.StatusUnauthorized},
		{"right password", "groove", false, http.StatusOK},
		{"admin session", "", true, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/events/dance/users", nil)
			req = testutil.WithChiURLParam(req, "eventId", "dance")
			if tt.password != "" {
				req.Header.Set(events.PasswordHeader, tt.password)
			}
			if tt.admin {
				req = testutil.WithUser(req, testutil.AdminUser())
			}
			rec := httptest.NewRecorder()
			h.Users(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.want)
			}
			if tt.want != http.StatusOK {
				return
			}
			body := rec.Body.String()
			if !strings.Contains(body, `"eventPoints":{`) || !strings.Contains(body, `"completedInTime":true`) {
				t.Errorf("expected eventPoints annotation, got %s", body)
			}
			if !strings.Contains(body, u.ID.Hex()) {
				t.Errorf("expected user %s in roster: %s", u.ID.Hex(), body)
			}
			if strings.Contains(body, "meera@example.com") != tt.admin {
				t.Errorf("email listed = %v, want %v: %s", !tt.admin, tt.admin, body)
			}
		})
	}
}

func TestUpdatePoints_Scenario(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := f.CreateUser(ctx, "Kiran", "P", "VIT", 0)
	f.CreateEvent(ctx, "coding", "Code Sprint", "pw")

	reg := httptest.NewRecorder()
	h.Register(reg, checkIn(u.ID.Hex(), "coding", "pw"))
	if reg.Code != http.StatusOK {
		t.Fatalf("register: %d %s", reg.Code, reg.Body.String())
	}

	steps := []struct {
		value bool
		want  float64
	}{
		{true, 6},
		{true, 6},
		{false, 1},
		{false, 1},
	}
	for i, s := range steps {
		req := testutil.NewJSONRequest("POST", "/events/update-points", map[string]any{
			"userId": u.ID.Hex(), "eventId": "coding", "pointType": "firstPlace", "value": s.value,
		})
		req.Header.Set(events.PasswordHeader, "pw")
		rec := httptest.NewRecorder()
		h.UpdatePoints(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("step %d: status %d: %s", i, rec.Code, rec.Body.String())
		}
		body := testutil.DecodeBody(t, rec)
		if body["success"] != true || body["updatedPoints"] != s.want {
			t.Errorf("step %d: got %v, want updatedPoints %v", i, body, s.want)
		}
	}
	if got := userPoints(t, f, u); got != 1 {
		t.Errorf("stored points: got %d, want 1", got)
	}
}

func TestUpdatePoints_Errors(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := f.CreateUser(ctx, "Dev", "R", "IIT", 0)
	f.CreateEvent(ctx, "golf", "Mini Golf", "pw")

	tests := []struct {
		name     string
		body     map[string]any
		password string
		want     int
	}{
		{"unknown award", map[string]any{"userId": u.ID.Hex(), "eventId": "golf", "pointType": "fifthPlace", "value": true}, "pw", http.StatusBadRequest},
		{"missing value", map[string]any{"userId": u.ID.Hex(), "eventId": "golf", "pointType": "firstPlace"}, "pw", http.StatusBadRequest},
		{"missing user", map[string]any{"eventId": "golf", "pointType": "firstPlace", "value": true}, "pw", http.StatusBadRequest},
		{"wrong password", map[string]any{"userId": u.ID.Hex(), "eventId": "golf", "pointType": "firstPlace", "value": true}, "nope", http.StatusUnauthorized},
		{"unknown event", map[string]any{"userId": u.ID.Hex(), "eventId": "none", "pointType": "firstPlace", "value": true}, "pw", http.StatusNotFound},
		{"not registered", map[string]any{"userId": u.ID.Hex(), "eventId": "golf", "pointType": "firstPlace", "value": true}, "pw", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest("POST", "/events/update-points", tt.body)
			req.Header.Set(events.PasswordHeader, tt.password)
			rec := httptest.NewRecorder()
			h.UpdatePoints(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
	if got := userPoints(t, f, u); got != 0 {
		t.Errorf("points changed on failed calls: %d", got)
	}
}

func TestCreate(t *testing.T) {
	h, _ := newTestHandler(t)

	body := map[string]any{
		"id": "treasure-hunt", "title": "Treasure Hunt", "password": "x-marks",
		"description": "<p>Find it</p><script>alert(1)</script>", "points": 2,
	}
	rec := httptest.NewRecorder()
	h.Create(rec, testutil.NewJSONRequest("POST", "/events", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	if s := rec.Body.String(); strings.Contains(s, "alert") || strings.Contains(s, "x-marks") {
		t.Errorf("unsafe content in response: %s", s)
	}

	rec = httptest.NewRecorder()
	h.Create(rec, testutil.NewJSONRequest("POST", "/events", body))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: got %d, want 409", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Create(rec, testutil.NewJSONRequest("POST", "/events", map[string]any{"title": "No Password"}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid: got %d, want 400", rec.Code)
	}
}

func TestVerify(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f.CreateEvent(ctx, "music", "Battle of Bands", "encore")

	tests := []struct {
		password string
		want     int
	}{
		{"encore", http.StatusOK},
		{"bis", http.StatusUnauthorized},
		{"", http.StatusBadRequest},
	}
	for _, tt := range tests {
		req := testutil.NewJSONRequest("POST", "/events/music/verify", map[string]string{"password": tt.password})
		req = testutil.WithChiURLParam(req, "eventId", "music")
		rec := httptest.NewRecorder()
		h.Verify(rec, req)
		if rec.Code != tt.want {
			t.Errorf("password %q: got %d, want %d", tt.password, rec.Code, tt.want)
		}
	}
}

func TestRoutes_CreateRequiresAdmin(t *testing.T) {
	h, _ := newTestHandler(t)
	sm, err := auth.NewSessionManager(strings.Repeat("k", 32), "test", "", 0, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	r := events.Routes(h, sm)

	body := map[string]string{"title": "Open Mic", "password": "mic-check"}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest("POST", "/", body))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: got %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.WithUser(testutil.NewJSONRequest("POST", "/", body), testutil.AttendeeUser("g-1")))
	if rec.Code != http.StatusForbidden {
		t.Errorf("attendee: got %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.WithUser(testutil.NewJSONRequest("POST", "/", body), testutil.AdminUser()))
	if rec.Code != http.StatusCreated {
		t.Errorf("admin: got %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
}
