// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/festhub/internal/app/store/audit"
	"github.com/dalemusser/festhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
//
// Validation level is "moderate": documents that predate a schema change
// are only checked when they are next updated.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("events", eventsSchema())
	ensure("event_registrations", registrationsSchema())
	ensure("point_audit", pointAuditSchema())

	// TTL-managed; no validator needed.
	ensure("oauth_states", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	nonBlank   = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	nonNegInt  = bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0}
	anyInteger = bson.M{"bsonType": bson.A{"int", "long"}}
)

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"role", "points"},
			"properties": bson.M{
				"external_id": bson.M{"bsonType": "string", "minLength": 1},
				"first_name":  bson.M{"bsonType": "string"},
				"last_name":   bson.M{"bsonType": "string"},
				"college":     bson.M{"bsonType": "string"},
				"college_ci":  bson.M{"bsonType": "string"},
				"email":       bson.M{"bsonType": "string"},
				"role":        bson.M{"enum": bson.A{models.RoleAttendee, models.RoleAdmin}},
				"points":      nonNegInt,
			},
		},
	}
}

func eventsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"event_id", "name", "password_hash"},
			"properties": bson.M{
				"event_id":      nonBlank,
				"name":          nonBlank,
				"tag":           bson.M{"bsonType": "string"},
				"password_hash": nonBlank,
				"points":        nonNegInt,
			},
		},
	}
}

func registrationsSchema() bson.M {
	awardProps := bson.M{}
	required := bson.A{}
	for _, k := range models.AllAwardKinds {
		awardProps[string(k)] = bson.M{"bsonType": "bool"}
		required = append(required, string(k))
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "event_id", "awards"},
			"properties": bson.M{
				"user_id":  nonBlank,
				"event_id": nonBlank,
				"awards": bson.M{
					"bsonType":             "object",
					"required":             required,
					"properties":           awardProps,
					"additionalProperties": false,
				},
			},
		},
	}
}

func pointAuditSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"timestamp", "user_id", "reason", "delta"},
			"properties": bson.M{
				"timestamp": bson.M{"bsonType": "date"},
				"user_id":   nonBlank,
				"reason":    bson.M{"enum": bson.A{audit.ReasonRegistration, audit.ReasonAwardGranted, audit.ReasonAwardRevoked}},
				"delta":     anyInteger,
			},
		},
	}
}
