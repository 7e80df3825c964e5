package catalogstore

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bank-spn/manus-pos/internal/notify"
)

func setupTestDB(t *testing.T) *Repository {
	// Use in-memory database for tests
	repo, err := NewRepository(":memory:")
	require.NoError(t, err)

	require.NoError(t, repo.RunMigrations("./migrations"))

	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestListActiveProducts_ReturnsSeededProducts(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.ListActiveProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 6)

	assert.Equal(t, "Shrimp Fried Rice", products[0].Name.EN)
	assert.Equal(t, "ข้าวผัดกุ้ง", products[0].Name.TH)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("80.00")))
	require.NotNil(t, products[0].CategoryID)
	assert.Equal(t, int64(1), *products[0].CategoryID)
}

func TestListActiveProducts_SkipsInactive(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.db.Exec(`UPDATE products SET is_active = 0 WHERE id = 1`)
	require.NoError(t, err)

	products, err := repo.ListActiveProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 5)
}

func TestListActiveCategories_OrderedBySortOrder(t *testing.T) {
	repo := setupTestDB(t)

	categories, err := repo.ListActiveCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 3)

	assert.Equal(t, "Main Dishes", categories[0].Name.EN)
	assert.Equal(t, "Drinks", categories[1].Name.EN)
	assert.Equal(t, "Desserts", categories[2].Name.EN)
}

func TestListActiveTables_OrderedByTableNumber(t *testing.T) {
	repo := setupTestDB(t)

	tables, err := repo.ListActiveTables(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 4)

	assert.Equal(t, "T01", tables[0].TableNumber)
	require.NotNil(t, tables[0].Name)
	assert.Equal(t, "Window Side", tables[0].Name.EN)
	assert.Nil(t, tables[1].Name)
}

func TestListActiveProducts_CancelledContext(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ListActiveProducts(ctx)
	assert.Error(t, err)
}

func TestSource_SubscribeUsesHub(t *testing.T) {
	repo := setupTestDB(t)
	hub := notify.NewHub()
	src := NewSource(repo, hub)

	var calls int
	sub := src.Subscribe(func() { calls++ })
	defer sub.Cancel()

	hub.Broadcast()
	assert.Equal(t, 1, calls)
}
