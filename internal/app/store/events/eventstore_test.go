package eventstore_test

import (
	"errors"
	"strings"
	"testing"

	eventstore "github.com/dalemusser/festhub/internal/app/store/events"
	"github.com/dalemusser/festhub/internal/app/system/indexes"
	"github.com/dalemusser/festhub/internal/testutil"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	eventstore.BcryptCost = bcrypt.MinCost
}

func TestStore_Get_DualID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ev := fixtures.CreateEvent(ctx, "hackathon", "Hackathon", "secret")

	byString, err := store.Get(ctx, "hackathon")
	if err != nil {
		t.Fatalf("Get by event id failed: %v", err)
	}
	byOID, err := store.Get(ctx, ev.ID.Hex())
	if err != nil {
		t.Fatalf("Get by ObjectID failed: %v", err)
	}
	if byString.ID != byOID.ID {
		t.Errorf("both lookups must resolve the same event: %v vs %v", byString.ID, byOID.ID)
	}

	for _, ref := range []string{"nope", primitive.NewObjectID().Hex(), ""} {
		if _, err := store.Get(ctx, ref); !errors.Is(err, eventstore.ErrNotFound) {
			t.Errorf("Get(%q): got %v, want ErrNotFound", ref, err)
		}
	}
}

func TestStore_Get_StringIDWinsOverObjectID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateEvent(ctx, "quiz", "Quiz", "pw")
	// An event whose string id happens to be another event's ObjectID hex.
	b := fixtures.CreateEvent(ctx, a.ID.Hex(), "Impostor", "pw")

	got, err := store.Get(ctx, a.ID.Hex())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != b.ID {
		t.Errorf("expected string id match %v, got %v", b.ID, got.ID)
	}
}

func TestStore_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	empty, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}

	fixtures.CreateEvent(ctx, "z", "Zumba", "pw")
	fixtures.CreateEvent(ctx, "a", "Antakshari", "pw")
	fixtures.CreateEvent(ctx, "m", "Music", "pw")

	events, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Name != "Antakshari" || events[2].Name != "Zumba" {
		t.Errorf("expected name order, got %s..%s", events[0].Name, events[2].Name)
	}
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	ev, err := store.Create(ctx, eventstore.NewEvent{
		EventID:     "robowars",
		Name:        "  Robo   Wars ",
		Description: "<p>Build</p><script>alert(1)</script>",
		Tag:         "Technical",
		Password:    "gate-pass",
		Points:      10,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if ev.Name != "Robo Wars" {
		t.Errorf("Name: got %q", ev.Name)
	}
	if strings.Contains(ev.Description, "script") {
		t.Errorf("Description not sanitized: %q", ev.Description)
	}
	if ev.Tag != "technical" {
		t.Errorf("Tag: got %q", ev.Tag)
	}
	if ev.PasswordHash == "" || ev.PasswordHash == "gate-pass" {
		t.Error("expected password to be hashed")
	}
	if !eventstore.CheckPassword(ev, "gate-pass") {
		t.Error("CheckPassword rejected the right password")
	}
	if eventstore.CheckPassword(ev, "wrong") {
		t.Error("CheckPassword accepted a wrong password")
	}
	if eventstore.CheckPassword(ev, "") {
		t.Error("CheckPassword accepted an empty password")
	}

	if _, err := store.Create(ctx, eventstore.NewEvent{EventID: "robowars", Name: "Again", Password: "x"}); !errors.Is(err, eventstore.ErrDuplicateEventID) {
		t.Errorf("duplicate id: got %v, want ErrDuplicateEventID", err)
	}
}

func TestStore_Create_GeneratesID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ev, err := store.Create(ctx, eventstore.NewEvent{Name: "Debate", Password: "pw"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := uuid.Parse(ev.EventID); err != nil {
		t.Errorf("expected generated UUID id, got %q", ev.EventID)
	}

	got, err := store.Get(ctx, ev.EventID)
	if err != nil {
		t.Fatalf("Get generated id failed: %v", err)
	}
	if got.Name != "Debate" {
		t.Errorf("Name: got %q", got.Name)
	}
}

func TestStore_Create_Invalid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name string
		in   eventstore.NewEvent
	}{
		{"missing title", eventstore.NewEvent{Password: "pw"}},
		{"missing password", eventstore.NewEvent{Name: "X"}},
		{"negative points", eventstore.NewEvent{Name: "X", Password: "pw", Points: -1}},
		{"id with slash", eventstore.NewEvent{EventID: "a/b", Name: "X", Password: "pw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Create(ctx, tt.in); !errors.Is(err, eventstore.ErrInvalidEvent) {
				t.Errorf("got %v, want ErrInvalidEvent", err)
			}
		})
	}
}

func TestStore_Seed_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	seed := []eventstore.NewEvent{
		{EventID: "e1", Name: "Coding Relay", Password: "one", Points: 1},
		{EventID: "e2", Name: "Treasure Hunt", Password: "two", Points: 1},
	}

	n, err := store.Seed(ctx, seed)
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if n != 2 {
		t.Errorf("first seed inserted %d, want 2", n)
	}

	// A re-seed with a changed name must not overwrite the stored event.
	seed[0].Name = "Renamed"
	n, err = store.Seed(ctx, seed)
	if err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second seed inserted %d, want 0", n)
	}

	ev, err := store.Get(ctx, "e1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ev.Name != "Coding Relay" {
		t.Errorf("seed overwrote existing event: name %q", ev.Name)
	}

	if _, err := store.Seed(ctx, []eventstore.NewEvent{{Name: "No ID", Password: "x"}}); !errors.Is(err, eventstore.ErrInvalidEvent) {
		t.Errorf("seed without id: got %v, want ErrInvalidEvent", err)
	}
}
