package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bank-spn/manus-pos/internal/domain"
	"github.com/bank-spn/manus-pos/internal/session"
)

// ProductLookup resolves a product id against the live catalog snapshot.
type ProductLookup interface {
	Product(id int64) (domain.Product, bool)
}

type CartHandler struct {
	session *session.Session
	lookup  ProductLookup
}

func NewCartHandler(sess *session.Session, lookup ProductLookup) *CartHandler {
	return &CartHandler{
		session: sess,
		lookup:  lookup,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type SelectTableRequestDTO struct {
	TableID *int64 `json:"table_id"`
}

type SetLanguageRequestDTO struct {
	Language string `json:"language"`
}

type CartLineDTO struct {
	ProductID int64            `json:"product_id"`
	Name      domain.MultiLang `json:"name"`
	Quantity  int              `json:"quantity"`
	UnitPrice string           `json:"unit_price"`
	LineTotal string           `json:"line_total"`
}

type CartResponseDTO struct {
	Lines      []CartLineDTO `json:"lines"`
	TotalItems int           `json:"total_items"`
	Subtotal   string        `json:"subtotal"`
	TableID    *int64        `json:"table_id,omitempty"`
	Language   string        `json:"language"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.cartDTO())
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, ok := h.lookup.Product(req.ProductID)
	if !ok {
		respondError(w, http.StatusNotFound, "product_not_found", "product is not in the active catalog")
		return
	}

	h.session.AddProduct(product, req.Quantity)
	respondJSON(w, http.StatusCreated, h.cartDTO())
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 99")
		return
	}

	// Quantity zero removes the line, matching the ledger semantics.
	h.session.SetQuantity(productID, req.Quantity)
	respondJSON(w, http.StatusOK, h.cartDTO())
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	h.session.RemoveProduct(productID)
	respondJSON(w, http.StatusOK, h.cartDTO())
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.session.ClearCart()
	respondJSON(w, http.StatusOK, h.cartDTO())
}

// PUT /api/v1/cart/table
func (h *CartHandler) SelectTable(w http.ResponseWriter, r *http.Request) {
	var req SelectTableRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.TableID != nil && *req.TableID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_table_id", "table_id must be positive or null")
		return
	}

	h.session.SelectTable(req.TableID)
	respondJSON(w, http.StatusOK, h.cartDTO())
}

// PUT /api/v1/cart/language
func (h *CartHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req SetLanguageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.session.SetLanguage(session.Language(req.Language)); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_language", "language must be th or en")
		return
	}
	respondJSON(w, http.StatusOK, h.cartDTO())
}

func (h *CartHandler) cartDTO() CartResponseDTO {
	lines := h.session.Ledger().Lines()
	dto := CartResponseDTO{
		Lines:      make([]CartLineDTO, 0, len(lines)),
		TotalItems: h.session.Ledger().TotalItemCount(),
		Subtotal:   h.session.Ledger().Subtotal().StringFixed(2),
		TableID:    h.session.Table(),
		Language:   string(h.session.Language()),
	}
	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Qty))
		dto.Lines = append(dto.Lines, CartLineDTO{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Quantity:  line.Qty,
			UnitPrice: line.Product.Price.StringFixed(2),
			LineTotal: line.Product.Price.Mul(qty).StringFixed(2),
		})
	}
	return dto
}

func parseProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productIDStr := chi.URLParam(r, "product_id")
	productID, err := strconv.ParseInt(productIDStr, 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}
