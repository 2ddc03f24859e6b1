// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Entry reasons
const (
	ReasonRegistration = "registration"
	ReasonAwardGranted = "award_granted"
	ReasonAwardRevoked = "award_revoked"
)

// Entry records one change to a user's points.
type Entry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	UserID  string `bson:"user_id" json:"userId"` // users._id hex
	EventID string `bson:"event_id" json:"eventId"`
	Reason  string `bson:"reason" json:"reason"`
	Award   string `bson:"award,omitempty" json:"award,omitempty"`
	Delta   int64  `bson:"delta" json:"delta"`

	// Points is the user's balance right after the change.
	Points int64 `bson:"points" json:"points"`

	// ActorID is the signed-in user who made the change, if any.
	ActorID string `bson:"actor_id,omitempty" json:"actorId,omitempty"`
	IP      string `bson:"ip,omitempty" json:"-"`
}

// QueryFilter narrows Query. Zero fields are ignored.
type QueryFilter struct {
	UserID    string
	EventID   string
	Reason    string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// Store manages point audit records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("point_audit")}
}

// Log records an entry.
func (s *Store) Log(ctx context.Context, e Entry) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, e)
	return err
}

func buildQuery(f QueryFilter) bson.M {
	q := bson.M{}
	if f.UserID != "" {
		q["user_id"] = f.UserID
	}
	if f.EventID != "" {
		q["event_id"] = f.EventID
	}
	if f.Reason != "" {
		q["reason"] = f.Reason
	}
	if f.StartTime != nil || f.EndTime != nil {
		tq := bson.M{}
		if f.StartTime != nil {
			tq["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			tq["$lte"] = *f.EndTime
		}
		q["timestamp"] = tq
	}
	return q
}

// Query returns entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, f QueryFilter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(f.Offset)

	cur, err := s.c.Find(ctx, buildQuery(f), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Entry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of entries matching the filter.
func (s *Store) Count(ctx context.Context, f QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, buildQuery(f))
}

// SumByUser adds up the deltas recorded for a user. For a consistent ledger
// this equals the user's points.
func (s *Store) SumByUser(ctx context.Context, userID string) (int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$delta"}}}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
