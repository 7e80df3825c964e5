package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bank-spn/manus-pos/internal/domain"
	"github.com/bank-spn/manus-pos/internal/orderstore"
)

// OrderLister reads order history from the order sink.
type OrderLister interface {
	ListOrders(ctx context.Context, since time.Time) ([]domain.Order, error)
}

// OrderAdvancer moves orders through their lifecycle. Only the local
// order store supports this; against a remote sink it stays nil and the
// endpoint is not mounted.
type OrderAdvancer interface {
	AdvanceOrder(ctx context.Context, orderID int64, next domain.OrderStatus) (*domain.Order, error)
}

type OrdersHandler struct {
	lister   OrderLister
	advancer OrderAdvancer
	timeout  time.Duration
}

func NewOrdersHandler(lister OrderLister, advancer OrderAdvancer, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		lister:   lister,
		advancer: advancer,
		timeout:  timeout,
	}
}

// CanAdvance reports whether the status endpoint should be mounted.
func (h *OrdersHandler) CanAdvance() bool {
	return h.advancer != nil
}

type OrderItemDTO struct {
	ProductID int64            `json:"product_id"`
	Name      domain.MultiLang `json:"name"`
	Quantity  int              `json:"quantity"`
	Price     string           `json:"price"`
	Total     string           `json:"total"`
}

type OrderResponseDTO struct {
	ID          int64          `json:"id"`
	OrderNumber string         `json:"order_number"`
	TableID     *int64         `json:"table_id,omitempty"`
	Status      string         `json:"status"`
	Subtotal    string         `json:"subtotal"`
	Tax         string         `json:"tax"`
	Discount    string         `json:"discount"`
	Total       string         `json:"total"`
	Items       []OrderItemDTO `json:"items"`
	CreatedAt   string         `json:"created_at"`
}

type AdvanceOrderRequestDTO struct {
	Status string `json:"status"`
}

// GET /api/v1/orders?since={RFC3339}
// Without a since parameter the listing covers today's orders.
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	since := startOfToday()
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_since", "since must be an RFC3339 timestamp")
			return
		}
		since = parsed
	}

	orders, err := h.lister.ListOrders(ctx, since)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "orders_unavailable", "could not list orders")
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, convertOrder(&orders[i]))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// POST /api/v1/orders/{order_id}/status
func (h *OrdersHandler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderIDStr := chi.URLParam(r, "order_id")
	orderID, err := strconv.ParseInt(orderIDStr, 10, 64)
	if err != nil || orderID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a positive integer")
		return
	}

	var req AdvanceOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.advancer.AdvanceOrder(ctx, orderID, domain.OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, orderstore.ErrOrderNotFound):
			respondError(w, http.StatusNotFound, "order_not_found", "no such order")
		case errors.Is(err, orderstore.ErrIllegalTransition):
			respondError(w, http.StatusConflict, "illegal_transition", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", "could not update order status")
		}
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Qty,
			Price:     item.Price.StringFixed(2),
			Total:     item.Total.StringFixed(2),
		})
	}

	return OrderResponseDTO{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		TableID:     o.TableID,
		Status:      string(o.Status),
		Subtotal:    o.Subtotal.StringFixed(2),
		Tax:         o.Tax.StringFixed(2),
		Discount:    o.Discount.StringFixed(2),
		Total:       o.Total.StringFixed(2),
		Items:       items,
		CreatedAt:   o.CreatedAt.Format(time.RFC3339),
	}
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
