package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/jediswimmer/ironcurtain/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisCache is a read-through queue-position cache shared across
// arenad instances, so query(agent) answers consistently regardless of
// which instance's in-process queue actually holds the entry. The
// in-process Matchmaker map remains authoritative for pairing; this is
// purely an external read path.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache builds a client for addr (connections are opened on
// first use) and returns a cache with the given
// key TTL (entries are refreshed every pairing pass, so a generous TTL
// just bounds staleness after an ungraceful shutdown).
func NewRedisCache(addr string, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

func positionKey(mode config.Mode, agentID string) string {
	return fmt.Sprintf("arena:queue:%s:%s", mode, agentID)
}

// SetPosition writes the agent's current position and wait estimate.
func (c *RedisCache) SetPosition(ctx context.Context, mode config.Mode, agentID string, position int, estimatedWait time.Duration) {
	value := fmt.Sprintf("%d:%d", position, estimatedWait.Milliseconds())
	c.client.Set(ctx, positionKey(mode, agentID), value, c.ttl)
}

// Remove deletes the cached position, called on pairing, cancel, or
// timeout.
func (c *RedisCache) Remove(ctx context.Context, mode config.Mode, agentID string) {
	c.client.Del(ctx, positionKey(mode, agentID))
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
