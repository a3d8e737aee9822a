package rateLimit_test

import (
	"context"
	"testing"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	redisadapter "github.com/robertarktes/eventhub/internal/adapters/redis"
	"github.com/robertarktes/eventhub/internal/observability"
	"github.com/robertarktes/eventhub/internal/rateLimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redisclient.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("requires docker")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForExec([]string{"redis-cli", "ping"}),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redisclient.NewClient(&redisclient.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	client := startRedis(t)
	rl := rateLimit.NewRateLimiter(redisadapter.NewCache(client), observability.NewDiscardLogger())

	for i := 1; i <= 3; i++ {
		assert.True(t, rl.Allow(ctx, "ip:10.0.0.1", 3, time.Second), "request %d", i)
	}
	assert.False(t, rl.Allow(ctx, "ip:10.0.0.1", 3, time.Second))
	assert.True(t, rl.Allow(ctx, "ip:10.0.0.2", 3, time.Second), "keys are counted separately")

	ttl, err := client.PTTL(ctx, "rl:ip:10.0.0.1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Second)

	// Rejected hits must not push the window out.
	require.Eventually(t, func() bool {
		return rl.Allow(ctx, "ip:10.0.0.1", 3, time.Second)
	}, 3*time.Second, 100*time.Millisecond)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	client := redisclient.NewClient(&redisclient.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	rl := rateLimit.NewRateLimiter(redisadapter.NewCache(client), observability.NewDiscardLogger())

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow(context.Background(), "user:u1", 1, time.Minute))
	}
}
