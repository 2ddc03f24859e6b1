// Package txn runs multi-document writes in a MongoDB transaction when the
// deployment supports one.
//
// Standalone mongod (the usual local dev setup) rejects transactions. Run
// detects that and executes the callback without a transaction, reporting
// so the caller can fall back to compensating writes.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// notSupportedCodes are server codes returned when sessions or transactions
// cannot be used: IllegalOperation (20), InvalidOptions (51) and
// OperationNotSupportedInTransaction (263).
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

// IsNotSupported reports whether err means the deployment cannot run a
// transaction, as opposed to the transaction itself failing.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) && notSupportedCodes[ce.Code] {
		return true
	}

	// Drivers and proxies do not always surface a code; fall back to the
	// message, requiring two independent hints to avoid false positives.
	msg := strings.ToLower(err.Error())
	hints := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			hints++
		}
	}
	return hints >= 2
}

// Run executes fn inside a transaction on client. The returned bool is true
// whenever fn ran inside a transaction, committed or aborted; an aborted
// transaction has already discarded its writes, so there is nothing for the
// caller to undo. The bool is false only when fn ran without a transaction:
// client is nil, or the deployment does not support transactions.
func Run(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) (bool, error) {
	if client == nil {
		return false, fn(ctx)
	}

	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return false, fn(ctx)
		}
		return false, err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return false, fn(ctx)
	}
	return true, err
}
