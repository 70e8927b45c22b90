package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/averyls/mirrorbot/internal/domain"
)

// seenKey is the set holding every transaction hash the bot has processed.
const seenKey = "seen:tx"

// SeenCache implements domain.SeenCache using a Redis set. It mirrors the
// poller's in-memory known-hash set so dedup state survives a process swap
// and is inspectable from redis-cli.
type SeenCache struct {
	rdb *redis.Client
}

var _ domain.SeenCache = (*SeenCache)(nil)

// NewSeenCache creates a SeenCache backed by the given Client.
func NewSeenCache(c *Client) *SeenCache {
	return &SeenCache{rdb: c.Underlying()}
}

// Add records a transaction hash as processed.
func (s *SeenCache) Add(ctx context.Context, txHash string) error {
	if err := s.rdb.SAdd(ctx, seenKey, txHash).Err(); err != nil {
		return fmt.Errorf("redis: add seen hash: %w", err)
	}
	return nil
}

// Contains reports whether a transaction hash has been processed.
func (s *SeenCache) Contains(ctx context.Context, txHash string) (bool, error) {
	ok, err := s.rdb.SIsMember(ctx, seenKey, txHash).Result()
	if err != nil {
		return false, fmt.Errorf("redis: check seen hash: %w", err)
	}
	return ok, nil
}
