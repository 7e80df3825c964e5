package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bank-spn/manus-pos/internal/session"
)

// --- helpers ---

func withProductID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("product_id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func newCartHandler() *CartHandler {
	return NewCartHandler(session.New("terminal-test"), viewMock{products: testProducts()})
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) CartResponseDTO {
	t.Helper()
	var dto CartResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	return dto
}

// --- Tests ---

func TestAddItem_Success(t *testing.T) {
	h := newCartHandler()

	body := strings.NewReader(`{"product_id": 1, "quantity": 2}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body)
	rec := httptest.NewRecorder()
	h.AddItem(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	cart := decodeCart(t, rec)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.Equal(t, "60.00", cart.Lines[0].UnitPrice)
	assert.Equal(t, "120.00", cart.Lines[0].LineTotal)
	assert.Equal(t, "120.00", cart.Subtotal)
}

func TestAddItem_DefaultsToQuantityOne(t *testing.T) {
	h := newCartHandler()

	body := strings.NewReader(`{"product_id": 1}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body)
	rec := httptest.NewRecorder()
	h.AddItem(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	cart := decodeCart(t, rec)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 1, cart.Lines[0].Quantity)
}

func TestAddItem_SameProductMerges(t *testing.T) {
	h := newCartHandler()

	for range 2 {
		body := strings.NewReader(`{"product_id": 1, "quantity": 2}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body)
		rec := httptest.NewRecorder()
		h.AddItem(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	h.GetCart(rec, req)

	cart := decodeCart(t, rec)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 4, cart.Lines[0].Quantity)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	h := newCartHandler()

	body := strings.NewReader(`{"product_id": 999, "quantity": 1}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body)
	rec := httptest.NewRecorder()
	h.AddItem(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddItem_QuantityOutOfBounds(t *testing.T) {
	h := newCartHandler()

	body := strings.NewReader(`{"product_id": 1, "quantity": 100}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body)
	rec := httptest.NewRecorder()
	h.AddItem(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateQuantity_ZeroRemovesLine(t *testing.T) {
	h := newCartHandler()

	body := strings.NewReader(`{"product_id": 1, "quantity": 2}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body)
	h.AddItem(httptest.NewRecorder(), req)

	update := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/1", strings.NewReader(`{"quantity": 0}`))
	rec := httptest.NewRecorder()
	h.UpdateQuantity(rec, withProductID(update, "1"))

	require.Equal(t, http.StatusOK, rec.Code)
	cart := decodeCart(t, rec)
	assert.Empty(t, cart.Lines)
}

func TestUpdateQuantity_InvalidProductID(t *testing.T) {
	h := newCartHandler()

	update := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/abc", strings.NewReader(`{"quantity": 1}`))
	rec := httptest.NewRecorder()
	h.UpdateQuantity(rec, withProductID(update, "abc"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveItem(t *testing.T) {
	h := newCartHandler()

	body := strings.NewReader(`{"product_id": 1, "quantity": 2}`)
	h.AddItem(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body))

	del := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/1", nil)
	rec := httptest.NewRecorder()
	h.RemoveItem(rec, withProductID(del, "1"))

	require.Equal(t, http.StatusOK, rec.Code)
	cart := decodeCart(t, rec)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, "0.00", cart.Subtotal)
}

func TestClearCart(t *testing.T) {
	h := newCartHandler()

	body := strings.NewReader(`{"product_id": 1, "quantity": 2}`)
	h.AddItem(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body))

	rec := httptest.NewRecorder()
	h.ClearCart(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	cart := decodeCart(t, rec)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, 0, cart.TotalItems)
}

func TestSelectTable(t *testing.T) {
	h := newCartHandler()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/table", strings.NewReader(`{"table_id": 3}`))
	rec := httptest.NewRecorder()
	h.SelectTable(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cart := decodeCart(t, rec)
	require.NotNil(t, cart.TableID)
	assert.Equal(t, int64(3), *cart.TableID)

	// null clears the selection (takeaway)
	req = httptest.NewRequest(http.MethodPut, "/api/v1/cart/table", strings.NewReader(`{"table_id": null}`))
	rec = httptest.NewRecorder()
	h.SelectTable(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeCart(t, rec).TableID)
}

func TestSetLanguage(t *testing.T) {
	h := newCartHandler()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/language", strings.NewReader(`{"language": "en"}`))
	rec := httptest.NewRecorder()
	h.SetLanguage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "en", decodeCart(t, rec).Language)

	req = httptest.NewRequest(http.MethodPut, "/api/v1/cart/language", strings.NewReader(`{"language": "de"}`))
	rec = httptest.NewRecorder()
	h.SetLanguage(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
