// Package cache keeps per-owner expense lists in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/expense-tracker/internal/model"
)

const defaultTTL = 30 * time.Second

// ExpenseCache stores the list projection of each owner under its own key.
// Entries are only ever read by the list operation; single-record reads and
// writes always go to the store.
//
// Every owner has a generation counter and lists are keyed by generation.
// Invalidate advances the counter, so a list loaded before a write can only
// land under a generation nobody reads any more.
type ExpenseCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewExpenseCache returns a cache on rdb whose keys start with prefix.  A
// non-positive ttl falls back to 30s.
func NewExpenseCache(rdb *redis.Client, prefix string, ttl time.Duration) *ExpenseCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &ExpenseCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *ExpenseCache) genKey(ownerID uint64) string {
	return fmt.Sprintf("%s:owner:%d:gen", c.prefix, ownerID)
}

func (c *ExpenseCache) listKey(ownerID, gen uint64) string {
	return fmt.Sprintf("%s:owner:%d:list:%d", c.prefix, ownerID, gen)
}

// Generation returns the current list generation of ownerID, 0 if it was
// never invalidated.
func (c *ExpenseCache) Generation(ctx context.Context, ownerID uint64) (uint64, error) {
	gen, err := c.rdb.Get(ctx, c.genKey(ownerID)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetList returns the list of ownerID cached under gen.  The boolean is
// false on a miss.
func (c *ExpenseCache) GetList(ctx context.Context, ownerID, gen uint64) ([]model.Expense, bool, error) {
	key := c.listKey(ownerID, gen)
	bs, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var list []model.Expense
	if err := json.Unmarshal(bs, &list); err != nil {
		// drop undecodable entries so the next read repopulates
		_ = c.rdb.Del(ctx, key).Err()
		return nil, false, fmt.Errorf("decode cached list: %w", err)
	}
	if list == nil {
		list = []model.Expense{}
	}
	return list, true, nil
}

// SetList stores list for ownerID under gen with the configured TTL.
func (c *ExpenseCache) SetList(ctx context.Context, ownerID, gen uint64, list []model.Expense) error {
	bs, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.listKey(ownerID, gen), bs, c.ttl).Err()
}

// Invalidate advances the generation of ownerID.  Lists stored under older
// generations expire on their own.
func (c *ExpenseCache) Invalidate(ctx context.Context, ownerID uint64) error {
	return c.rdb.Incr(ctx, c.genKey(ownerID)).Err()
}
