package txn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/festhub/internal/app/system/txn"
	"github.com/dalemusser/festhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestRun_CommitsWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Collections must exist before use inside a transaction on older servers.
	if err := db.CreateCollection(ctx, "things"); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	_, err := txn.Run(ctx, db.Client(), func(ctx context.Context) error {
		_, err := db.Collection("things").InsertOne(ctx, bson.M{"n": 1})
		return err
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	n, err := db.Collection("things").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 1 {
		t.Errorf("count: got %d, want 1", n)
	}
}

func TestRun_PropagatesError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	boom := errors.New("boom")
	_, err := txn.Run(ctx, db.Client(), func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestRun_NilClientRunsWithoutTransaction(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()

	calls := 0
	boom := errors.New("boom")
	transactional, err := txn.Run(ctx, nil, func(ctx context.Context) error {
		calls++
		return boom
	})
	if transactional {
		t.Error("nil client must not report a transaction")
	}
	if calls != 1 {
		t.Errorf("fn calls = %d, want 1", calls)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestRun_AbortedTransactionIsReportedAndRolledBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := db.CreateCollection(ctx, "event_registrations"); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	boom := errors.New("increment points: user not found")
	transactional, err := txn.Run(ctx, db.Client(), func(ctx context.Context) error {
		if _, err := db.Collection("event_registrations").InsertOne(ctx, bson.M{"user_id": "u1", "event_id": "quiz"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !transactional {
		t.Skip("deployment does not support transactions")
	}

	n, err := db.Collection("event_registrations").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 0 {
		t.Errorf("aborted insert survived: count %d", n)
	}
}
