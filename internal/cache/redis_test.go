package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bank-spn/manus-pos/internal/catalog"
	"github.com/bank-spn/manus-pos/internal/domain"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func testSnapshot() *catalog.Snapshot {
	return &catalog.Snapshot{
		Products: []domain.Product{
			{
				ID:    1,
				Name:  domain.MultiLang{TH: "ข้าวผัด", EN: "Fried Rice"},
				Price: decimal.RequireFromString("60.00"),
			},
		},
		Categories: []domain.Category{
			{ID: 1, Name: domain.MultiLang{TH: "อาหาร", EN: "Food"}, SortOrder: 1},
		},
	}
}

func TestGet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	data, err := json.Marshal(testSnapshot())
	require.NoError(t, err)
	require.NoError(t, mr.Set(snapshotKey, string(data)))

	result, err := cache.Get(ctx)
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, int64(1), result.Products[0].ID)
	assert.Equal(t, "Fried Rice", result.Products[0].Name.EN)
	assert.Len(t, result.Categories, 1)
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	result, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set(snapshotKey, "{not json"))

	_, err := cache.Get(context.Background())
	require.ErrorContains(t, err, "unmarshal snapshot failed")
}

func TestSet_ThenGetRoundTrip(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, testSnapshot()))

	result, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.True(t, result.Products[0].Price.Equal(decimal.RequireFromString("60.00")))
}

func TestSet_AppliesTTL(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, cache.Set(context.Background(), testSnapshot()))
	assert.Greater(t, mr.TTL(snapshotKey).Minutes(), 14.0)
}

func TestDelete(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, testSnapshot()))
	require.NoError(t, cache.Delete(ctx))

	_, err := cache.Get(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestDelete_MissingKeyIsNoError(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	assert.NoError(t, cache.Delete(context.Background()))
}
