package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTestRedisAddr is used when BENEVOLES_TEST_REDIS_ADDR is unset.
const DefaultTestRedisAddr = "localhost:6379"

// SetupTestRedis returns a client on a scratch Redis database (15) that is
// flushed before and after the test. The test is skipped when no server answers.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("BENEVOLES_TEST_REDIS_ADDR")
	if addr == "" {
		addr = DefaultTestRedisAddr
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not reachable (%s): %v", addr, err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("flush redis: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = client.FlushDB(ctx)
		_ = client.Close()
	})
	return client
}
