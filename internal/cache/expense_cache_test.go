package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/expense-tracker/internal/model"
)

func newTestCache(t *testing.T) (*ExpenseCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewExpenseCache(rdb, "expenses", time.Minute), mr
}

func TestExpenseCache_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.GetList(ctx, 1, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	list := []model.Expense{{
		ID:          5,
		Category:    "Food",
		SubCategory: "Market",
		Amount:      decimal.RequireFromString("604.87"),
		Date:        model.NewDate(time.Date(2024, 12, 21, 0, 0, 0, 0, time.UTC)),
		Owner:       model.UserSummary{ID: 1, Name: "Steh"},
	}}
	require.NoError(t, c.SetList(ctx, 1, 0, list))

	got, ok, err := c.GetList(ctx, 1, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(5), got[0].ID)
	assert.True(t, got[0].Amount.Equal(list[0].Amount))
	assert.Equal(t, "2024-12-21", got[0].Date.String())
	assert.Equal(t, list[0].Owner, got[0].Owner)

	// other owners do not share the entry
	_, ok, err = c.GetList(ctx, 2, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpenseCache_EmptyListIsAHit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetList(ctx, 1, 0, []model.Expense{}))
	got, ok, err := c.GetList(ctx, 1, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExpenseCache_InvalidateAndTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetList(ctx, 1, 0, []model.Expense{}))
	assert.Equal(t, time.Minute, mr.TTL("expenses:owner:1:list:0"))
	require.NoError(t, c.Invalidate(ctx, 1))

	gen, err := c.Generation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)
	_, ok, _ := c.GetList(ctx, 1, gen)
	assert.False(t, ok)

	require.NoError(t, c.SetList(ctx, 1, gen, []model.Expense{}))
	mr.FastForward(2 * time.Minute)
	_, ok, _ = c.GetList(ctx, 1, gen)
	assert.False(t, ok)

	// the generation itself does not expire
	gen, err = c.Generation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)
}

func TestExpenseCache_LateWriteUnderOldGenerationIsNotServed(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	// a loader reads the generation, then a write invalidates before the
	// loader stores its snapshot
	before, err := c.Generation(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, 1))
	stale := []model.Expense{{ID: 5, Category: "Food", Owner: model.UserSummary{ID: 1, Name: "Steh"}}}
	require.NoError(t, c.SetList(ctx, 1, before, stale))

	now, err := c.Generation(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, before, now)
	_, ok, err := c.GetList(ctx, 1, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpenseCache_InvalidationIsPerOwner(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetList(ctx, 2, 0, []model.Expense{}))
	require.NoError(t, c.Invalidate(ctx, 1))

	gen, err := c.Generation(ctx, 2)
	require.NoError(t, err)
	_, ok, err := c.GetList(ctx, 2, gen)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExpenseCache_CorruptEntryIsDropped(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("expenses:owner:1:list:0", "{garbage"))
	_, ok, err := c.GetList(ctx, 1, 0)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("expenses:owner:1:list:0"))
}

func TestExpenseCache_CorruptGeneration(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, mr.Set("expenses:owner:1:gen", "nope"))
	_, err := c.Generation(context.Background(), 1)
	assert.Error(t, err)
}
