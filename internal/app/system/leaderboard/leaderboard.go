// Package leaderboard computes the public standings: top individuals and
// per-institution totals. Both are derived from users.points on every read,
// so there is no second counter to drift.
package leaderboard

import (
	"context"
	"fmt"
	"time"

	userstore "github.com/dalemusser/festhub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
)

// TopN is the maximum number of individuals on the board.
const TopN = 100

// Individual is one row of the individuals list.
type Individual struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	College     string `json:"college"`
	Points      int64  `json:"points"`
}

// Institution is one row of the institutions list.
type Institution struct {
	Name    string `json:"name"`
	Points  int64  `json:"points"`
	Members int64  `json:"members"`
}

// Board is a snapshot of the standings.
type Board struct {
	Institutions []Institution `json:"collegeLeaderboard"`
	Individuals  []Individual  `json:"topUsers"`
	LastUpdated  time.Time     `json:"lastUpdated"`
}

// Aggregator builds boards from the users collection.
type Aggregator struct {
	users *userstore.Store
	now   func() time.Time
}

func New(db *mongo.Database) *Aggregator {
	return &Aggregator{users: userstore.New(db), now: time.Now}
}

// Build reads the current standings. Users with zero points appear in
// neither list. Individuals are ordered by points descending with ties broken
// by internal id; institutions by summed points descending.
func (a *Aggregator) Build(ctx context.Context) (*Board, error) {
	top, err := a.users.TopByPoints(ctx, TopN)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	colleges, err := a.users.CollegeTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("college totals: %w", err)
	}

	b := &Board{
		Institutions: make([]Institution, 0, len(colleges)),
		Individuals:  make([]Individual, 0, len(top)),
		LastUpdated:  a.now().UTC(),
	}
	for _, c := range colleges {
		b.Institutions = append(b.Institutions, Institution{Name: c.Name, Points: c.Points, Members: c.Members})
	}
	for _, u := range top {
		b.Individuals = append(b.Individuals, Individual{
			ID:          u.ID.Hex(),
			Name:        u.FullName(),
			DisplayName: u.DisplayName,
			PhotoURL:    u.PhotoURL,
			College:     u.College,
			Points:      u.Points,
		})
	}
	return b, nil
}
