package handoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/angelmondragon/cafe-storefront/pkg/redis"
)

type redisStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	GetDel(ctx context.Context, key string) (string, error)
	HandoffKey(scope, slot string) string
}

// RedisSubstrate stores each slot under its own key with a TTL and consumes
// it with GETDEL.
type RedisSubstrate struct {
	client redisStore
}

func NewRedisSubstrate(client redisStore) (*RedisSubstrate, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisSubstrate{client: client}, nil
}

func (r *RedisSubstrate) Put(ctx context.Context, key Key, payload []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.client.HandoffKey(key.Scope, key.Slot), string(payload), ttl)
}

func (r *RedisSubstrate) Take(ctx context.Context, key Key) ([]byte, error) {
	val, err := r.client.GetDel(ctx, r.client.HandoffKey(key.Scope, key.Slot))
	if errors.Is(err, redisclient.ErrNil) {
		return nil, ErrAbsent
	}
	if err != nil {
		return nil, err
	}
	return []byte(val), nil
}
