package eventstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/festhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/festhub/internal/app/system/normalize"
	"github.com/dalemusser/festhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrNotFound is returned when no event matches the reference.
	ErrNotFound = errors.New("event not found")
	// ErrDuplicateEventID is returned when creating an event whose id is taken.
	ErrDuplicateEventID = errors.New("an event with this id already exists")
	// ErrInvalidEvent wraps field-level problems with a NewEvent.
	ErrInvalidEvent = errors.New("invalid event")
)

// BcryptCost is the work factor for gate passwords. Tests lower it.
var BcryptCost = bcrypt.DefaultCost

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

// NewEvent is the input for Create and Seed. Password is plaintext and is
// hashed before it is stored.
type NewEvent struct {
	EventID     string `json:"id"`
	Name        string `json:"title"`
	Description string `json:"description"`
	Tag         string `json:"tag"`
	Password    string `json:"password"`
	Points      int    `json:"points"`
}

// Get resolves an event by its stable string id first, then by ObjectID hex.
// The string id wins when a value could be read either way.
func (s *Store) Get(ctx context.Context, ref string) (*models.Event, error) {
	ref = normalize.ID(ref)
	if ref == "" {
		return nil, ErrNotFound
	}

	var e models.Event
	err := s.c.FindOne(ctx, bson.M{"event_id": ref}).Decode(&e)
	if err == nil {
		return &e, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	oid, perr := primitive.ObjectIDFromHex(ref)
	if perr != nil {
		return nil, ErrNotFound
	}
	if err := s.c.FindOne(ctx, bson.M{"_id": oid}).Decode(&e); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// List returns every event ordered by name.
func (s *Store) List(ctx context.Context) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []models.Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// build validates and converts a NewEvent into a storable document.
func build(in NewEvent) (models.Event, error) {
	name := normalize.Name(in.Name)
	if name == "" {
		return models.Event{}, fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if in.Password == "" {
		return models.Event{}, fmt.Errorf("%w: password is required", ErrInvalidEvent)
	}
	if in.Points < 0 {
		return models.Event{}, fmt.Errorf("%w: points must not be negative", ErrInvalidEvent)
	}

	id := normalize.ID(in.EventID)
	if id == "" {
		id = uuid.NewString()
	}
	if strings.ContainsAny(id, " /?#") {
		return models.Event{}, fmt.Errorf("%w: id must not contain spaces or URL delimiters", ErrInvalidEvent)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), BcryptCost)
	if err != nil {
		return models.Event{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	return models.Event{
		ID:           primitive.NewObjectID(),
		EventID:      id,
		Name:         name,
		Description:  htmlsanitize.PrepareForDisplay(in.Description),
		Tag:          normalize.Tag(in.Tag),
		PasswordHash: string(hash),
		Points:       in.Points,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Create stores a new event. An empty EventID gets a generated UUID.
func (s *Store) Create(ctx context.Context, in NewEvent) (*models.Event, error) {
	e, err := build(in)
	if err != nil {
		return nil, err
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEventID
		}
		return nil, err
	}
	return &e, nil
}

// CheckPassword reports whether plain is the event's gate password.
func CheckPassword(e *models.Event, plain string) bool {
	if e == nil || e.PasswordHash == "" || plain == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(plain)) == nil
}

// Seed inserts the given events unless one with the same id already exists.
// Existing events are left untouched, so seeding on every start is safe.
// It returns how many events were inserted.
func (s *Store) Seed(ctx context.Context, in []NewEvent) (int, error) {
	inserted := 0
	for i, ne := range in {
		if normalize.ID(ne.EventID) == "" {
			return inserted, fmt.Errorf("%w: seed entry %d has no id", ErrInvalidEvent, i)
		}
		e, err := build(ne)
		if err != nil {
			return inserted, fmt.Errorf("seed entry %q: %w", ne.EventID, err)
		}

		res, err := s.c.UpdateOne(ctx,
			bson.M{"event_id": e.EventID},
			bson.M{"$setOnInsert": e},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			if wafflemongo.IsDup(err) {
				continue
			}
			return inserted, fmt.Errorf("seed %q: %w", e.EventID, err)
		}
		if res.UpsertedCount == 1 {
			inserted++
		}
	}
	return inserted, nil
}
