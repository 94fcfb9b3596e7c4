package testutils

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"taskboard/utils"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	TestJWTSecret = "test_secret_key"
	TestIssuer    = "taskboard"
)

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var setupOnce sync.Once

// SetupTestEnvironment loads an optional .env from the module root and
// switches the process into test mode.
func SetupTestEnvironment() {
	setupOnce.Do(func() {
		if rootDir := findProjectRoot(); rootDir != "" {
			envPath := filepath.Join(rootDir, ".env.test")
			if err := godotenv.Load(envPath); err == nil {
				log.Printf("Loaded test env from: %s", envPath)
			}
		}
		os.Setenv("GO_ENV", "test")
		if os.Getenv("MONGO_DB_TEST") == "" {
			os.Setenv("MONGO_DB_TEST", "taskboard_test")
		}
	})
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// SetupTestDB connects to TEST_MONGO_URI and returns a fresh collection with a
// cleanup function dropping the test database. Tests are skipped when no
// test database is configured.
func SetupTestDB(t *testing.T, collection string) (*mongo.Collection, func()) {
	t.Helper()
	SetupTestEnvironment()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set, skipping MongoDB integration test")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(utils.GetEnvAsUint64("MONGO_MAX_POOL_SIZE", 10)).
		SetMaxConnIdleTime(utils.GetEnvAsDuration("MONGO_MAX_CONN_IDLE_TIME", 60*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		t.Fatalf("Failed to ping MongoDB: %v", err)
	}

	dbName := os.Getenv("MONGO_DB_TEST")
	coll := client.Database(dbName).Collection(collection)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Database(dbName).Drop(ctx); err != nil {
			t.Logf("Warning: Failed to drop test database %s: %v", dbName, err)
		}
		if err := client.Disconnect(ctx); err != nil {
			t.Logf("Warning: Failed to disconnect: %v", err)
		}
	}

	return coll, cleanup
}

// BearerToken signs an access token for userID with the test secret.
func BearerToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := utils.SignAccessToken(userID, TestJWTSecret, TestIssuer, time.Hour)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return "Bearer " + token
}
