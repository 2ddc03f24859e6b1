// internal/domain/models/registration.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Awards holds every award flag of a ledger entry. All fields are always
// written so conditional updates can match on the stored value.
type Awards struct {
	FirstPlace         bool `bson:"firstPlace" json:"firstPlace"`
	SecondPlace        bool `bson:"secondPlace" json:"secondPlace"`
	ThirdPlace         bool `bson:"thirdPlace" json:"thirdPlace"`
	FourthPlace        bool `bson:"fourthPlace" json:"fourthPlace"`
	CompletedInTime    bool `bson:"completedInTime" json:"completedInTime"`
	ParticipationPoint bool `bson:"participationPoint" json:"participationPoint"`
}

// Get returns the flag for kind.
func (a Awards) Get(kind AwardKind) bool {
	switch kind {
	case AwardFirstPlace:
		return a.FirstPlace
	case AwardSecondPlace:
		return a.SecondPlace
	case AwardThirdPlace:
		return a.ThirdPlace
	case AwardFourthPlace:
		return a.FourthPlace
	case AwardCompletedInTime:
		return a.CompletedInTime
	case AwardParticipationPoint:
		return a.ParticipationPoint
	}
	return false
}

// Total sums the weights of all set flags.
func (a Awards) Total() int64 {
	var n int64
	for _, k := range AllAwardKinds {
		if a.Get(k) {
			n += k.Weight()
		}
	}
	return n
}

// Registration is one ledger entry binding a user to an event.
// At most one exists per (UserID, EventID).
type Registration struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"userId"`
	EventID   string             `bson:"event_id" json:"eventId"`
	Awards    Awards             `bson:"awards" json:"eventPoints"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}
