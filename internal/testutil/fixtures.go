package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/festhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts an attendee with the given college and starting points.
func (f *Fixtures) CreateUser(ctx context.Context, firstName, lastName, college string, points int64) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:        primitive.NewObjectID(),
		FirstName: firstName,
		LastName:  lastName,
		College:   college,
		CollegeCI: text.Fold(college),
		Role:      models.RoleAttendee,
		Points:    points,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateUserWithExternalID inserts an attendee linked to an identity-provider subject.
func (f *Fixtures) CreateUserWithExternalID(ctx context.Context, externalID, firstName, college string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	ext := externalID
	u := models.User{
		ID:         primitive.NewObjectID(),
		ExternalID: &ext,
		FirstName:  firstName,
		College:    college,
		CollegeCI:  text.Fold(college),
		Role:       models.RoleAttendee,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateEvent inserts an event whose gate password is password.
func (f *Fixtures) CreateEvent(ctx context.Context, eventID, name, password string) models.Event {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash event password: %v", err)
	}

	now := time.Now().UTC()
	e := models.Event{
		ID:           primitive.NewObjectID(),
		EventID:      eventID,
		Name:         name,
		Description:  "Test event description",
		Tag:          "technical",
		PasswordHash: string(hash),
		Points:       1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("events").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return e
}

// CreateRegistration inserts a ledger entry directly, bypassing the workflow.
func (f *Fixtures) CreateRegistration(ctx context.Context, userID primitive.ObjectID, eventID string, awards models.Awards) models.Registration {
	f.t.Helper()

	now := time.Now().UTC()
	reg := models.Registration{
		ID:        primitive.NewObjectID(),
		UserID:    userID.Hex(),
		EventID:   eventID,
		Awards:    awards,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("event_registrations").InsertOne(ctx, reg); err != nil {
		f.t.Fatalf("failed to create test registration: %v", err)
	}
	return reg
}
