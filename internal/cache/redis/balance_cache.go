package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/averyls/mirrorbot/internal/domain"
)

// BalanceCache implements domain.BalanceCache using Redis string keys with a
// TTL. Sizing reads both parties' portfolio values on every detected trade;
// the cache keeps those reads off the data API between polls.
type BalanceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ domain.BalanceCache = (*BalanceCache)(nil)

// NewBalanceCache creates a BalanceCache with the given freshness window.
func NewBalanceCache(c *Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{rdb: c.Underlying(), ttl: ttl}
}

func balanceKey(wallet string) string {
	return "balance:" + wallet
}

// Get returns the cached USD value for a wallet and whether one existed.
func (b *BalanceCache) Get(ctx context.Context, wallet string) (float64, bool, error) {
	val, err := b.rdb.Get(ctx, balanceKey(wallet)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis: get balance %s: %w", wallet, err)
	}

	usd, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("redis: parse cached balance %s: %w", wallet, err)
	}
	return usd, true, nil
}

// Set caches a wallet's USD value for the configured TTL.
func (b *BalanceCache) Set(ctx context.Context, wallet string, usd float64) error {
	val := strconv.FormatFloat(usd, 'f', -1, 64)
	if err := b.rdb.Set(ctx, balanceKey(wallet), val, b.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set balance %s: %w", wallet, err)
	}
	return nil
}
