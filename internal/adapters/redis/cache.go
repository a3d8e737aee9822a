package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robertarktes/eventhub/internal/domain"
)

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func statsKey(userID uuid.UUID) string {
	return "stats:" + userID.String()
}

// GetStats returns nil, nil on a cache miss.
func (c *Cache) GetStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	val, err := c.client.Get(ctx, statsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get stats")
	}
	var stats domain.UserStats
	if err := json.Unmarshal(val, &stats); err != nil {
		return nil, errors.Wrap(err, "decode stats")
	}
	return &stats, nil
}

func (c *Cache) SetStats(ctx context.Context, userID uuid.UUID, stats domain.UserStats, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKey(userID), data, ttl).Err()
}

func (c *Cache) InvalidateStats(ctx context.Context, userID uuid.UUID) error {
	return c.client.Del(ctx, statsKey(userID)).Err()
}

// AcquireLock takes a named lease for owner. It reports false when another
// owner holds it.
func (c *Cache) AcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	res := c.client.SetNX(ctx, "lock:"+name, owner, ttl)
	return res.Val(), res.Err()
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func (c *Cache) ReleaseLock(ctx context.Context, name, owner string) error {
	return releaseScript.Run(ctx, c.client, []string{"lock:" + name}, owner).Err()
}
