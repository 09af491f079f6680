package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Cooldown grants at most one Acquire per key within ttl.
type Cooldown interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisCooldown stores cooldown markers with SET NX EX so every replica sees them.
type RedisCooldown struct {
	client redis.Cmdable
	prefix string
}

// NewRedisCooldown builds a cooldown backed by client.
func NewRedisCooldown(client redis.Cmdable, prefix string) *RedisCooldown {
	return &RedisCooldown{client: client, prefix: prefix}
}

func (r *RedisCooldown) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.prefix+key, 1, ttl).Result()
}

// MemoryCooldown is a single-process fallback used when redis is unavailable.
type MemoryCooldown struct {
	store *gocache.Cache
}

// NewMemoryCooldown builds an in-process cooldown.
func NewMemoryCooldown() *MemoryCooldown {
	return &MemoryCooldown{store: gocache.New(time.Minute, 5*time.Minute)}
}

func (m *MemoryCooldown) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if err := m.store.Add(key, struct{}{}, ttl); err != nil {
		return false, nil
	}
	return true, nil
}
