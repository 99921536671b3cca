package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var (
	redisOnce      sync.Once
	redisContainer *tcredis.RedisContainer
	redisClient    *redis.Client
	redisErr       error
)

// PrepareRedis returns a client to an empty redis running in a container.
// The test is skipped with -short or when no container runtime is available.
func PrepareRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	redisOnce.Do(startRedis)
	if redisErr != nil {
		t.Skipf("redis not available, skipping integration test: %v", redisErr)
	}
	if err := redisClient.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("FlushDB() failed: %v", err)
	}
	return redisClient
}

func startRedis() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	defer func() {
		if r := recover(); r != nil { // no docker
			redisErr = errNoRuntime
		}
	}()

	redisContainer, redisErr = tcredis.Run(ctx, "redis:7-alpine")
	if redisErr != nil {
		return
	}
	uri, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		redisErr = err
		return
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		redisErr = err
		return
	}
	redisClient = redis.NewClient(opts)
	redisErr = redisClient.Ping(ctx).Err()
}

// TeardownRedis stops the container started by PrepareRedis, if any. Call it from TestMain.
func TeardownRedis() {
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if redisContainer != nil {
		_ = redisContainer.Terminate(context.Background())
	}
}
