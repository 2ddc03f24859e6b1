// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is a fest event that attendees check in to.
//
// EventID is the stable string id used as the foreign key in the ledger.
// Older seed data was looked up by _id, so both must resolve.
type Event struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	EventID      string             `bson:"event_id" json:"id"`
	Name         string             `bson:"name" json:"title"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Tag          string             `bson:"tag,omitempty" json:"tag,omitempty"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Points       int                `bson:"points" json:"points"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
