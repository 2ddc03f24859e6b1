// Package registrationstore is the registration ledger: one entry per
// (user, event) recording which award flags the user holds for that event.
package registrationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/festhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no entry exists for the (user, event) pair.
var ErrNotFound = errors.New("registration not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("event_registrations")}
}

func key(userID, eventID string) bson.M {
	return bson.M{"user_id": userID, "event_id": eventID}
}

// InsertIfAbsent creates the entry for (userID, eventID) with only the
// participation flag set. created is true only for the call that inserted
// it; every other call, including a concurrent one that lost the race on the
// unique index, sees created == false.
func (s *Store) InsertIfAbsent(ctx context.Context, userID, eventID string) (created bool, err error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		key(userID, eventID),
		bson.M{"$setOnInsert": bson.M{
			"awards":     models.Awards{ParticipationPoint: true},
			"created_at": now,
			"updated_at": now,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount == 1, nil
}

// Get returns the entry for (userID, eventID).
func (s *Store) Get(ctx context.Context, userID, eventID string) (*models.Registration, error) {
	var reg models.Registration
	if err := s.c.FindOne(ctx, key(userID, eventID)).Decode(&reg); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// Delete removes the entry. Used to undo an insert whose point increment
// failed outside a transaction.
func (s *Store) Delete(ctx context.Context, userID, eventID string) error {
	res, err := s.c.DeleteOne(ctx, key(userID, eventID))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAward sets one award flag. The update only matches when the stored flag
// differs from value, so changed is true for exactly one of any number of
// identical concurrent calls.
func (s *Store) SetAward(ctx context.Context, userID, eventID string, kind models.AwardKind, value bool) (changed bool, err error) {
	field := "awards." + string(kind)

	filter := key(userID, eventID)
	if value {
		filter[field] = bson.M{"$ne": true}
	} else {
		filter[field] = true
	}

	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		field:        value,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return false, err
	}
	if res.ModifiedCount == 1 {
		return true, nil
	}

	// Nothing changed: either the flag already had this value or there is
	// no entry at all.
	n, err := s.c.CountDocuments(ctx, key(userID, eventID), options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

// ListByEvent returns an event's entries in check-in order.
func (s *Store) ListByEvent(ctx context.Context, eventID string) ([]models.Registration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"event_id": eventID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	regs := []models.Registration{}
	if err := cur.All(ctx, &regs); err != nil {
		return nil, err
	}
	return regs, nil
}

// ListByUser returns a user's entries, most recent first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.Registration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	regs := []models.Registration{}
	if err := cur.All(ctx, &regs); err != nil {
		return nil, err
	}
	return regs, nil
}
