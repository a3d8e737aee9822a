package idempotency

import (
	"context"
	"time"

	redisadapter "github.com/robertarktes/eventhub/internal/adapters/redis"
)

// InFlightTTL bounds how long a crashed request can block its key.
const InFlightTTL = 30 * time.Second

type Idempotency struct {
	redis *redisadapter.Idempotency
	ttl   time.Duration
}

func NewIdempotency(redis *redisadapter.Idempotency, ttl time.Duration) *Idempotency {
	return &Idempotency{redis: redis, ttl: ttl}
}

type Response struct {
	Status      int
	ContentType string
	Result      []byte
}

// Get returns the recorded response for key, or nil if none is recorded.
func (i *Idempotency) Get(ctx context.Context, key string) (*Response, error) {
	resp, err := i.redis.Get(ctx, key)
	if err != nil || resp == nil {
		return nil, err
	}
	return &Response{Status: resp.Status, ContentType: resp.ContentType, Result: resp.Result}, nil
}

func (i *Idempotency) Set(ctx context.Context, key string, resp Response) error {
	return i.redis.Set(ctx, key, redisadapter.IdempResponse{
		Status:      resp.Status,
		ContentType: resp.ContentType,
		Result:      resp.Result,
	}, i.ttl)
}

// Reserve claims key for the request about to run. Only one holder at a time
// gets true.
func (i *Idempotency) Reserve(ctx context.Context, key string) (bool, error) {
	return i.redis.Reserve(ctx, key, InFlightTTL)
}

func (i *Idempotency) Release(ctx context.Context, key string) error {
	return i.redis.Release(ctx, key)
}
