package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bank-spn/manus-pos/internal/domain"
)

func catProduct(id int64, categoryID *int64, th, en string) domain.Product {
	return domain.Product{
		ID:         id,
		Name:       domain.MultiLang{TH: th, EN: en},
		CategoryID: categoryID,
		IsActive:   true,
	}
}

func int64p(v int64) *int64 { return &v }

func TestFilter_NoCategoryNoQueryMatchesAll(t *testing.T) {
	products := []domain.Product{
		catProduct(1, int64p(1), "ข้าวผัด", "Fried Rice"),
		catProduct(2, int64p(2), "ชาเย็น", "Thai Iced Tea"),
		catProduct(3, nil, "น้ำเปล่า", "Water"),
	}

	got := Filter(products, nil, "")
	assert.Len(t, got, 3)
}

func TestFilter_CategoryOnly(t *testing.T) {
	products := []domain.Product{
		catProduct(1, int64p(1), "ข้าวผัด", "Fried Rice"),
		catProduct(2, int64p(2), "ชาเย็น", "Thai Iced Tea"),
		catProduct(3, nil, "น้ำเปล่า", "Water"),
	}

	got := Filter(products, int64p(1), "")
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	// A product without a category never matches a selected category.
	got = Filter(products, int64p(99), "")
	assert.Empty(t, got)
}

func TestFilter_QueryMatchesEitherLanguage(t *testing.T) {
	products := []domain.Product{
		catProduct(1, nil, "ข้าวผัด", "Fried Rice"),
		catProduct(2, nil, "ชาเย็น", "Thai Iced Tea"),
	}

	got := Filter(products, nil, "rice")
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	got = Filter(products, nil, "ชาเย็น")
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestFilter_QueryIsCaseInsensitive(t *testing.T) {
	products := []domain.Product{
		catProduct(1, nil, "ข้าวผัด", "Fried Rice"),
	}

	assert.Len(t, Filter(products, nil, "FRIED"), 1)
	assert.Len(t, Filter(products, nil, "fRiEd RiCe"), 1)
	assert.Empty(t, Filter(products, nil, "noodle"))
}

func TestFilter_CategoryAndQueryComposeWithAND(t *testing.T) {
	products := []domain.Product{
		catProduct(1, int64p(1), "ข้าวผัดกุ้ง", "Shrimp Fried Rice"),
		catProduct(2, int64p(2), "ข้าวผัดปู", "Crab Fried Rice"),
	}

	got := Filter(products, int64p(1), "fried")
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	// Empty query matches all products regardless of category.
	got = Filter(products, int64p(2), "")
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestFilter_DeterministicForSameInputs(t *testing.T) {
	products := []domain.Product{
		catProduct(1, int64p(1), "ก", "a"),
		catProduct(2, int64p(1), "ข", "b"),
	}

	first := Filter(products, int64p(1), "")
	second := Filter(products, int64p(1), "")
	assert.Equal(t, first, second)
}
