package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bank-spn/manus-pos/internal/catalog"
	"github.com/bank-spn/manus-pos/internal/domain"
)

// --- Mocks ---

type viewMock struct {
	products   []domain.Product
	categories []domain.Category
}

func (m viewMock) Products(categoryID *int64, query string) []domain.Product {
	return catalog.Filter(m.products, categoryID, query)
}

func (m viewMock) Product(id int64) (domain.Product, bool) {
	for _, p := range m.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (m viewMock) Categories() []domain.Category {
	return m.categories
}

type tableListerMock struct {
	tables []domain.Table
	err    error
}

func (m tableListerMock) ListActiveTables(ctx context.Context) ([]domain.Table, error) {
	return m.tables, m.err
}

func testProducts() []domain.Product {
	categoryMains := int64(1)
	categoryDrinks := int64(2)
	return []domain.Product{
		{
			ID:         1,
			Name:       domain.MultiLang{TH: "ผัดไทย", EN: "Pad Thai"},
			Price:      decimal.RequireFromString("60.00"),
			CategoryID: &categoryMains,
			IsActive:   true,
		},
		{
			ID:         2,
			Name:       domain.MultiLang{TH: "ชาเย็น", EN: "Thai Iced Tea"},
			Price:      decimal.RequireFromString("35.00"),
			CategoryID: &categoryDrinks,
			IsActive:   true,
		},
	}
}

// --- Tests ---

func TestListProducts_All(t *testing.T) {
	h := NewCatalogHandler(viewMock{products: testProducts()}, tableListerMock{}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	h.ListProducts(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var products []domain.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	assert.Len(t, products, 2)
}

func TestListProducts_FilteredByCategoryAndQuery(t *testing.T) {
	h := NewCatalogHandler(viewMock{products: testProducts()}, tableListerMock{}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category=2&q=tea", nil)
	rec := httptest.NewRecorder()
	h.ListProducts(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var products []domain.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, int64(2), products[0].ID)
}

func TestListProducts_InvalidCategory(t *testing.T) {
	h := NewCatalogHandler(viewMock{}, tableListerMock{}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category=abc", nil)
	rec := httptest.NewRecorder()
	h.ListProducts(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProducts_EmptySnapshotIsEmptyArray(t *testing.T) {
	h := NewCatalogHandler(viewMock{}, tableListerMock{}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	h.ListProducts(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestListCategories(t *testing.T) {
	h := NewCatalogHandler(viewMock{categories: []domain.Category{
		{ID: 1, Name: domain.MultiLang{TH: "จานหลัก", EN: "Mains"}, IsActive: true},
	}}, tableListerMock{}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	rec := httptest.NewRecorder()
	h.ListCategories(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var categories []domain.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &categories))
	require.Len(t, categories, 1)
	assert.Equal(t, "Mains", categories[0].Name.EN)
}

func TestListTables_SourceError(t *testing.T) {
	h := NewCatalogHandler(viewMock{}, tableListerMock{err: errors.New("db down")}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tables", nil)
	rec := httptest.NewRecorder()
	h.ListTables(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListTables_Success(t *testing.T) {
	h := NewCatalogHandler(viewMock{}, tableListerMock{tables: []domain.Table{
		{ID: 1, TableNumber: "T1", Capacity: 4, IsActive: true},
	}}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tables", nil)
	rec := httptest.NewRecorder()
	h.ListTables(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var tables []domain.Table
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tables))
	require.Len(t, tables, 1)
	assert.Equal(t, "T1", tables[0].TableNumber)
}
