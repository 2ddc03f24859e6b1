// internal/domain/models/user.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleAttendee = "attendee"
	RoleAdmin    = "admin"
)

// User is a fest attendee profile.
//
// NOTE:
//   - ExternalID is the identity provider's subject id. It is optional for
//     records created by an admin before the attendee first signs in.
//   - Points is only ever changed with $inc by the scoring workflow.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ExternalID  *string            `bson:"external_id,omitempty" json:"externalId,omitempty"`
	FirstName   string             `bson:"first_name" json:"firstName"`
	LastName    string             `bson:"last_name" json:"lastName"`
	College     string             `bson:"college" json:"college"`
	CollegeCI   string             `bson:"college_ci" json:"-"` // lowercase, diacritics-stripped
	DisplayName string             `bson:"display_name,omitempty" json:"displayName,omitempty"`
	PhotoURL    string             `bson:"photo_url,omitempty" json:"photoUrl,omitempty"`
	Email       string             `bson:"email,omitempty" json:"email,omitempty"`
	Role        string             `bson:"role" json:"role"`
	Points      int64              `bson:"points" json:"points"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// FullName joins first and last name, falling back to the display name.
func (u User) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.DisplayName
	}
	return name
}
