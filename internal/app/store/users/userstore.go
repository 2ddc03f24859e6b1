package userstore

// Terminology: User Identifiers
//   - UserID / userID / user_id: the MongoDB ObjectID (_id) of a user record, as hex in the ledger
//   - ExternalID / external_id: the identity provider's subject id for the person

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/festhub/internal/app/system/normalize"
	"github.com/dalemusser/festhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrNotFound is returned when no user matches the given reference.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateExternalID is returned when an identity is already linked to another user.
	ErrDuplicateExternalID = errors.New("identity already linked to another user")
	// ErrNegativePoints is returned when a decrement would take points below zero.
	ErrNegativePoints = errors.New("points would become negative")

	errMissingExternal = errors.New("external id is required")
	errBadRole         = errors.New(`role must be "attendee"|"admin"`)
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByExternalID loads a user by identity-provider subject id.
func (s *Store) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Resolve maps a caller-supplied user reference to exactly one user.
//
// Precedence:
//  1. internal id (ObjectID hex)
//  2. identity-provider subject id
//
// ErrNotFound is returned only when every interpretation misses; any other
// error aborts the resolution.
func (s *Store) Resolve(ctx context.Context, ref string) (*models.User, error) {
	ref = normalize.ID(ref)
	if ref == "" {
		return nil, ErrNotFound
	}

	if oid, err := primitive.ObjectIDFromHex(ref); err == nil {
		u, err := s.GetByID(ctx, oid)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	return s.GetByExternalID(ctx, ref)
}

// Profile holds the fields a user may set on their own record.
type Profile struct {
	FirstName   string
	LastName    string
	College     string
	DisplayName string
	PhotoURL    string
	Email       string
}

// Upsert creates or updates the user linked to externalID. Points and role
// are only initialized on insert; an update never touches them.
// Returns the stored user and whether it was created.
func (s *Store) Upsert(ctx context.Context, externalID string, p Profile) (*models.User, bool, error) {
	externalID = normalize.ID(externalID)
	if externalID == "" {
		return nil, false, errMissingExternal
	}

	now := time.Now().UTC()
	college := normalize.College(p.College)
	set := bson.M{
		"first_name": normalize.Name(p.FirstName),
		"last_name":  normalize.Name(p.LastName),
		"college":    college,
		"college_ci": text.Fold(college),
		"updated_at": now,
	}
	// Optional profile fields are only overwritten when supplied.
	if p.DisplayName != "" {
		set["display_name"] = normalize.Name(p.DisplayName)
	}
	if p.PhotoURL != "" {
		set["photo_url"] = p.PhotoURL
	}
	if p.Email != "" {
		set["email"] = normalize.Email(p.Email)
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"external_id": externalID},
		bson.M{
			"$set": set,
			"$setOnInsert": bson.M{
				"points":     int64(0),
				"role":       models.RoleAttendee,
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if wafflemongo.IsDup(err) {
			// Lost a race with a concurrent first login; the other insert won.
			u, getErr := s.GetByExternalID(ctx, externalID)
			if getErr != nil {
				return nil, false, getErr
			}
			return u, false, nil
		}
		return nil, false, err
	}

	u, err := s.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, false, err
	}
	return u, res.UpsertedCount == 1, nil
}

// SetRole changes a user's role.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	if role != models.RoleAttendee && role != models.RoleAdmin {
		return errBadRole
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncPoints atomically adds delta to a user's points and returns the new
// total. A negative delta only applies when the balance covers it, so the
// counter never goes below zero.
func (s *Store) IncPoints(ctx context.Context, id primitive.ObjectID, delta int64) (int64, error) {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["points"] = bson.M{"$gte": -delta}
	}

	var out struct {
		Points int64 `bson:"points"`
	}
	err := s.c.FindOneAndUpdate(ctx, filter,
		bson.M{
			"$inc": bson.M{"points": delta},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"points": 1}),
	).Decode(&out)
	if err == nil {
		return out.Points, nil
	}
	if err != mongo.ErrNoDocuments {
		return 0, err
	}

	if delta < 0 {
		// Distinguish a missing user from an insufficient balance.
		if _, getErr := s.GetByID(ctx, id); getErr == nil {
			return 0, ErrNegativePoints
		}
	}
	return 0, ErrNotFound
}

// ListByIDs returns the users with the given ids, in no particular order.
// Unknown ids are skipped.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// TopByPoints returns up to limit users with positive points, highest first.
// Equal scores are ordered by _id so repeated reads are stable.
func (s *Store) TopByPoints(ctx context.Context, limit int64) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "points", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"points": bson.M{"$gt": 0}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CollegeTotal is one row of the institution aggregate.
type CollegeTotal struct {
	Name    string `bson:"name"`
	Points  int64  `bson:"points"`
	Members int64  `bson:"members"`
}

// CollegeTotals sums positive user points per institution, highest first.
// Grouping uses the folded college name so spelling variants in case or
// diacritics land in one row. Users without a college are left out.
func (s *Store) CollegeTotals(ctx context.Context) ([]CollegeTotal, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"points": bson.M{"$gt": 0}, "college_ci": bson.M{"$nin": bson.A{"", nil}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$college_ci",
			"name":    bson.M{"$first": "$college"},
			"points":  bson.M{"$sum": "$points"},
			"members": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "points", Value: -1}, {Key: "_id", Value: 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []CollegeTotal
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
