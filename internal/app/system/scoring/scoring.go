// Package scoring is the registration workflow: checking an attendee in to
// an event exactly once and granting or revoking award points.
//
// Every change to users.points goes through here, as an $inc paired with a
// ledger write. The pair runs in one transaction when the deployment allows;
// otherwise the ledger write is undone if the increment fails.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	eventstore "github.com/dalemusser/festhub/internal/app/store/events"
	registrationstore "github.com/dalemusser/festhub/internal/app/store/registrations"
	userstore "github.com/dalemusser/festhub/internal/app/store/users"
	"github.com/dalemusser/festhub/internal/app/system/auditlog"
	"github.com/dalemusser/festhub/internal/app/system/txn"
	"github.com/dalemusser/festhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	// ErrMissingField means a required input was blank.
	ErrMissingField = errors.New("missing required field")
	// ErrNotFound means the user, event, or ledger entry does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnknownAward means the award kind is not one of the fixed kinds.
	ErrUnknownAward = errors.New("unknown award kind")
)

// errAlreadyRegistered aborts the check-in transaction when the entry exists.
var errAlreadyRegistered = errors.New("already registered")

// compensateTimeout bounds undo writes, which run even if the request
// context is already cancelled.
const compensateTimeout = 5 * time.Second

// Service runs the workflow against one database.
type Service struct {
	client *mongo.Client // nil runs without transactions
	users  *userstore.Store
	events *eventstore.Store
	regs   *registrationstore.Store
	audit  *auditlog.Logger
	log    *zap.Logger
}

// New builds a Service. auditLog may be nil.
func New(db *mongo.Database, auditLog *auditlog.Logger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client: db.Client(),
		users:  userstore.New(db),
		events: eventstore.New(db),
		regs:   registrationstore.New(db),
		audit:  auditLog,
		log:    logger,
	}
}

// DisableTransactions makes the service pair ledger and points writes with
// compensating undo writes instead of a transaction.
func (s *Service) DisableTransactions() {
	s.client = nil
}

// Result is the outcome of Register.
type Result struct {
	User      *models.User
	Event     *models.Event
	Duplicate bool
}

// UpdateResult is the outcome of UpdateAward.
type UpdateResult struct {
	User    *models.User
	Points  int64
	Delta   int64
	Changed bool
}

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}

func (s *Service) resolveUser(ctx context.Context, ref string) (*models.User, error) {
	u, err := s.users.Resolve(ctx, ref)
	if errors.Is(err, userstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return u, nil
}

func (s *Service) resolveEvent(ctx context.Context, ref string) (*models.Event, error) {
	e, err := s.events.Get(ctx, ref)
	if errors.Is(err, eventstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: event %q", ErrNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve event: %w", err)
	}
	return e, nil
}

// Register checks the user in to the event. The first call for a
// (user, event) pair creates the ledger entry and adds the participation
// point; every later call, concurrent or not, returns Duplicate without
// touching anything.
//
// userRef is a user's internal id or identity-provider id; eventRef is an
// event's string id or ObjectID hex.
func (s *Service) Register(ctx context.Context, userRef, eventRef string, by auditlog.Actor) (*Result, error) {
	userRef, eventRef = strings.TrimSpace(userRef), strings.TrimSpace(eventRef)
	if userRef == "" {
		return nil, missing("userId")
	}
	if eventRef == "" {
		return nil, missing("eventId")
	}

	user, err := s.resolveUser(ctx, userRef)
	if err != nil {
		return nil, err
	}
	event, err := s.resolveEvent(ctx, eventRef)
	if err != nil {
		return nil, err
	}

	uid := user.ID.Hex()
	weight := models.ParticipationWeight()

	var (
		inserted  bool
		newPoints int64
	)
	transactional, err := txn.Run(ctx, s.client, func(ctx context.Context) error {
		inserted = false
		created, err := s.regs.InsertIfAbsent(ctx, uid, event.EventID)
		if err != nil {
			return fmt.Errorf("insert registration: %w", err)
		}
		if !created {
			return errAlreadyRegistered
		}
		inserted = true

		pts, err := s.users.IncPoints(ctx, user.ID, weight)
		if err != nil {
			return fmt.Errorf("increment points: %w", err)
		}
		newPoints = pts
		return nil
	})

	if errors.Is(err, errAlreadyRegistered) {
		fresh, ferr := s.users.GetByID(ctx, user.ID)
		if ferr != nil {
			return nil, fmt.Errorf("reload user: %w", ferr)
		}
		return &Result{User: fresh, Event: event, Duplicate: true}, nil
	}
	if err != nil {
		if !transactional && inserted {
			s.undoRegistration(ctx, uid, event.EventID)
		}
		return nil, err
	}

	user.Points = newPoints
	s.log.Info("attendee registered",
		zap.String("user_id", uid),
		zap.String("event_id", event.EventID),
		zap.Int64("delta", weight),
		zap.Int64("points", newPoints),
		zap.Bool("transactional", transactional))
	s.audit.Registered(ctx, by, uid, event.EventID, weight, newPoints)

	return &Result{User: user, Event: event}, nil
}

func (s *Service) undoRegistration(ctx context.Context, userID, eventID string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()
	if err := s.regs.Delete(cctx, userID, eventID); err != nil {
		s.log.Error("failed to undo registration; ledger and points disagree",
			zap.String("user_id", userID),
			zap.String("event_id", eventID),
			zap.Error(err))
	}
}

// AwardInput names one award flag change.
type AwardInput struct {
	UserRef  string
	EventRef string
	Kind     string
	Value    bool
}

// UpdateAward sets or clears one award flag on an existing ledger entry and
// moves the user's points by the award weight. Setting a flag to the value it
// already has changes nothing.
func (s *Service) UpdateAward(ctx context.Context, in AwardInput, by auditlog.Actor) (*UpdateResult, error) {
	in.UserRef, in.EventRef, in.Kind = strings.TrimSpace(in.UserRef), strings.TrimSpace(in.EventRef), strings.TrimSpace(in.Kind)
	switch {
	case in.UserRef == "":
		return nil, missing("userId")
	case in.EventRef == "":
		return nil, missing("eventId")
	case in.Kind == "":
		return nil, missing("pointType")
	}
	kind, ok := models.ParseAwardKind(in.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAward, in.Kind)
	}

	user, err := s.resolveUser(ctx, in.UserRef)
	if err != nil {
		return nil, err
	}
	event, err := s.resolveEvent(ctx, in.EventRef)
	if err != nil {
		return nil, err
	}

	uid := user.ID.Hex()
	delta := kind.Weight()
	if !in.Value {
		delta = -delta
	}

	var (
		flipped   bool
		newPoints int64
	)
	transactional, err := txn.Run(ctx, s.client, func(ctx context.Context) error {
		flipped = false
		changed, err := s.regs.SetAward(ctx, uid, event.EventID, kind, in.Value)
		if errors.Is(err, registrationstore.ErrNotFound) {
			return fmt.Errorf("%w: registration for user %q in event %q", ErrNotFound, uid, event.EventID)
		}
		if err != nil {
			return fmt.Errorf("set award: %w", err)
		}
		if !changed {
			return nil
		}
		flipped = true

		pts, err := s.users.IncPoints(ctx, user.ID, delta)
		if err != nil {
			return fmt.Errorf("apply award delta: %w", err)
		}
		newPoints = pts
		return nil
	})
	if err != nil {
		if !transactional && flipped {
			s.undoAward(ctx, uid, event.EventID, kind, !in.Value)
		}
		return nil, err
	}

	if !flipped {
		fresh, err := s.users.GetByID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("reload user: %w", err)
		}
		return &UpdateResult{User: fresh, Points: fresh.Points}, nil
	}

	user.Points = newPoints
	s.log.Info("award updated",
		zap.String("user_id", uid),
		zap.String("event_id", event.EventID),
		zap.String("award", string(kind)),
		zap.Int64("delta", delta),
		zap.Int64("points", newPoints),
		zap.Bool("transactional", transactional))
	s.audit.AwardChanged(ctx, by, uid, event.EventID, kind, delta, newPoints)

	return &UpdateResult{User: user, Points: newPoints, Delta: delta, Changed: true}, nil
}

func (s *Service) undoAward(ctx context.Context, userID, eventID string, kind models.AwardKind, restore bool) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()
	if _, err := s.regs.SetAward(cctx, userID, eventID, kind, restore); err != nil {
		s.log.Error("failed to undo award; ledger and points disagree",
			zap.String("user_id", userID),
			zap.String("event_id", eventID),
			zap.String("award", string(kind)),
			zap.Error(err))
	}
}

// RosterEntry is one registered attendee with their award flags.
type RosterEntry struct {
	User   models.User
	Awards models.Awards
}

// Roster lists the users registered for an event in check-in order.
// Entries whose user has since been deleted are skipped.
func (s *Service) Roster(ctx context.Context, eventRef string) (*models.Event, []RosterEntry, error) {
	eventRef = strings.TrimSpace(eventRef)
	if eventRef == "" {
		return nil, nil, missing("eventId")
	}
	event, err := s.resolveEvent(ctx, eventRef)
	if err != nil {
		return nil, nil, err
	}

	regs, err := s.regs.ListByEvent(ctx, event.EventID)
	if err != nil {
		return nil, nil, fmt.Errorf("list registrations: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(regs))
	for _, r := range regs {
		if oid, err := primitive.ObjectIDFromHex(r.UserID); err == nil {
			ids = append(ids, oid)
		}
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load users: %w", err)
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID.Hex()] = u
	}

	out := make([]RosterEntry, 0, len(regs))
	for _, r := range regs {
		u, ok := byID[r.UserID]
		if !ok {
			continue
		}
		out = append(out, RosterEntry{User: u, Awards: r.Awards})
	}
	return event, out, nil
}

// Verify returns the points implied by the user's ledger entries alongside
// the stored users.points. The two are equal unless a compensating write
// failed.
func (s *Service) Verify(ctx context.Context, userID primitive.ObjectID) (ledger int64, points int64, err error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, userstore.ErrNotFound) {
		return 0, 0, fmt.Errorf("%w: user %q", ErrNotFound, userID.Hex())
	}
	if err != nil {
		return 0, 0, err
	}
	regs, err := s.regs.ListByUser(ctx, userID.Hex())
	if err != nil {
		return 0, 0, err
	}
	for _, r := range regs {
		ledger += r.Awards.Total()
	}
	return ledger, u.Points, nil
}
