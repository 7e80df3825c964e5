package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bank-spn/manus-pos/internal/domain"
)

// CatalogView serves catalog reads from the live snapshot.
// Consumers define this interface, not the view implementation.
type CatalogView interface {
	Products(categoryID *int64, query string) []domain.Product
	Product(id int64) (domain.Product, bool)
	Categories() []domain.Category
}

// TableLister lists the active dining tables.
type TableLister interface {
	ListActiveTables(ctx context.Context) ([]domain.Table, error)
}

type CatalogHandler struct {
	view    CatalogView
	tables  TableLister
	timeout time.Duration
}

func NewCatalogHandler(view CatalogView, tables TableLister, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		view:    view,
		tables:  tables,
		timeout: timeout,
	}
}

// GET /api/v1/products?category={id}&q={text}
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var categoryID *int64
	if raw := r.URL.Query().Get("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_category", "category must be an integer")
			return
		}
		categoryID = &id
	}

	products := h.view.Products(categoryID, r.URL.Query().Get("q"))
	if products == nil {
		products = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

// GET /api/v1/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.view.Categories()
	if categories == nil {
		categories = []domain.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

// GET /api/v1/tables
func (h *CatalogHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tables, err := h.tables.ListActiveTables(ctx)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "tables_unavailable", "could not list tables")
		return
	}
	if tables == nil {
		tables = []domain.Table{}
	}
	respondJSON(w, http.StatusOK, tables)
}
