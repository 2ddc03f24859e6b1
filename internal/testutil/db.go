package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ory/dockertest/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// EnvMongoURI names the environment variable that points tests at an
// existing MongoDB. When unset, a throwaway container is started with
// dockertest; when neither works the calling test is skipped.
const EnvMongoURI = "FESTHUB_TEST_MONGO_URI"

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
)

// TestContext returns a context with a generous timeout for test DB calls.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// SetupTestDB returns a fresh, uniquely named database that is dropped when
// the test finishes.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	clientOnce.Do(func() {
		client, clientErr = connect()
	})
	if clientErr != nil {
		t.Skipf("mongodb not available: %v", clientErr)
	}

	name := "festhub_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	db := client.Database(name)

	t.Cleanup(func() {
		ctx, cancel := TestContext()
		defer cancel()
		_ = db.Drop(ctx)
	})
	return db
}

func connect() (*mongo.Client, error) {
	uri := os.Getenv(EnvMongoURI)
	if uri == "" {
		var err error
		uri, err = startContainer()
		if err != nil {
			return nil, err
		}
	}

	ctx, cancel := TestContext()
	defer cancel()

	c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx, readpref.Primary()); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, err
	}
	return c, nil
}

// startContainer runs a single-node replica set so transactional code paths
// are exercised. The container expires on its own; tests never purge it.
func startContainer() (string, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return "", fmt.Errorf("docker pool: %w", err)
	}
	if err := pool.Client.Ping(); err != nil {
		return "", fmt.Errorf("docker ping: %w", err)
	}
	pool.MaxWait = 60 * time.Second

	res, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "7",
		Cmd:        []string{"--replSet", "rs0", "--bind_ip_all"},
	})
	if err != nil {
		return "", fmt.Errorf("start mongo: %w", err)
	}
	_ = res.Expire(600)

	hostPort := res.GetHostPort("27017/tcp")
	uri := "mongodb://" + hostPort + "/?directConnection=true"

	err = pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return err
		}
		defer c.Disconnect(context.Background())

		// Initiating twice returns AlreadyInitialized, which is fine.
		_ = c.Database("admin").RunCommand(ctx, bson.D{{Key: "replSetInitiate", Value: bson.M{
			"_id":     "rs0",
			"members": bson.A{bson.M{"_id": 0, "host": "localhost:27017"}},
		}}}).Err()
		return c.Ping(ctx, readpref.Primary())
	})
	if err != nil {
		_ = pool.Purge(res)
		return "", fmt.Errorf("mongo not ready: %w", err)
	}
	return uri, nil
}
