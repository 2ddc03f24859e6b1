package events

import (
	"regexp"

	"github.com/dalemusser/festhub/internal/domain/models"
	validation "github.com/go-ozzo/ozzo-validation"
)

type registerRequest struct {
	UserID  string `json:"userId"`
	EventID string `json:"eventId"`
}

func (req *registerRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.UserID, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.EventID, validation.Required, validation.Length(1, 200)),
	)
}

type updatePointsRequest struct {
	UserID    string `json:"userId"`
	EventID   string `json:"eventId"`
	PointType string `json:"pointType"`
	Value     *bool  `json:"value"`
}

func awardKindValues() []interface{} {
	out := make([]interface{}, 0, len(models.AllAwardKinds))
	for _, k := range models.AllAwardKinds {
		out = append(out, string(k))
	}
	return out
}

func (req *updatePointsRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.EventID, validation.Required),
		validation.Field(&req.PointType, validation.Required, validation.In(awardKindValues()...)),
		validation.Field(&req.Value, validation.NotNil),
	)
}

var eventIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

type createEventRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Tag         string `json:"tag"`
	Password    string `json:"password"`
	Points      int    `json:"points"`
}

func (req *createEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ID, validation.Length(1, 100), validation.Match(eventIDPattern)),
		validation.Field(&req.Title, validation.Required, validation.Length(2, 200)),
		validation.Field(&req.Description, validation.Length(0, 10000)),
		validation.Field(&req.Tag, validation.Length(0, 50)),
		validation.Field(&req.Password, validation.Required, validation.Length(4, 100)),
		validation.Field(&req.Points, validation.Min(0)),
	)
}

type verifyRequest struct {
	Password string `json:"password"`
}

func (req *verifyRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Password, validation.Required),
	)
}
