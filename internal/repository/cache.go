package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"contactfinder/internal/model"
)

var ErrCacheMiss = errors.New("balance not found in cache")

// BalanceCache keeps per-user balance summaries in Redis so the balance
// endpoint doesn't hit Postgres on every poll. Postgres stays the source of
// truth: the cache is never consulted for reservation decisions, only for
// reads, and is invalidated after every balance mutation.
type BalanceCache struct {
	rdb *redis.Client
}

func NewBalanceCache(rdb *redis.Client) *BalanceCache {
	return &BalanceCache{rdb: rdb}
}

func balanceKey(userID string) string {
	return fmt.Sprintf("balance:%s", userID)
}

func (c *BalanceCache) Get(ctx context.Context, userID string) (*model.BalanceSummary, error) {
	data, err := c.rdb.Get(ctx, balanceKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}
	var summary model.BalanceSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &summary, nil
}

func (c *BalanceCache) Set(ctx context.Context, userID string, summary *model.BalanceSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	// No TTL: entries are invalidated explicitly on every mutation.
	if err := c.rdb.Set(ctx, balanceKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *BalanceCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.rdb.Del(ctx, balanceKey(userID)).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
