package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bank-spn/manus-pos/internal/checkout"
	"github.com/bank-spn/manus-pos/internal/domain"
	"github.com/bank-spn/manus-pos/internal/pricing"
	"github.com/bank-spn/manus-pos/internal/session"
)

// CheckoutService is the orchestrator surface the handler needs.
type CheckoutService interface {
	Submit(ctx context.Context, payment checkout.Payment) (*domain.CheckoutResult, error)
	Quote(discount decimal.Decimal) pricing.Quote
	State() checkout.State
}

type CheckoutHandler struct {
	service CheckoutService
	session *session.Session
	timeout time.Duration
}

func NewCheckoutHandler(service CheckoutService, sess *session.Session, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		session: sess,
		timeout: timeout,
	}
}

type SubmitCheckoutRequestDTO struct {
	PaymentMethod string `json:"payment_method"`
	// Tendered is the cash amount handed over, as a decimal string.
	// Omitted means exact payment.
	Tendered *string `json:"tendered,omitempty"`
	Discount string  `json:"discount,omitempty"`
}

type CheckoutResponseDTO struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Change      string `json:"change"`
}

type QuoteResponseDTO struct {
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	TaxRate  string `json:"tax_rate"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SubmitCheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	method, err := domain.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payment_method", err.Error())
		return
	}

	payment := checkout.Payment{
		TableID: h.session.Table(),
		Method:  method,
	}

	if req.Tendered != nil {
		tendered, err := decimal.NewFromString(*req.Tendered)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_tendered", "tendered must be a decimal string")
			return
		}
		payment.Tendered = &tendered
	}
	if req.Discount != "" {
		discount, err := decimal.NewFromString(req.Discount)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_discount", "discount must be a decimal string")
			return
		}
		payment.Discount = discount
	}

	quote := h.service.Quote(payment.Discount)

	result, err := h.service.Submit(ctx, payment)
	if err != nil {
		log.Printf("checkout request %s failed: %v", getRequestID(r.Context()), err)
		handleCheckoutError(w, err)
		return
	}

	change := decimal.Zero
	if payment.Tendered != nil {
		change = quote.Change(*payment.Tendered)
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		OrderID:     result.OrderID,
		OrderNumber: result.OrderNumber,
		Change:      change.StringFixed(2),
	})
}

// GET /api/v1/checkout/state
func (h *CheckoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"state": string(h.service.State())})
}

// GET /api/v1/quote?discount={amount}
func (h *CheckoutHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	discount := decimal.Zero
	if raw := r.URL.Query().Get("discount"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_discount", "discount must be a decimal string")
			return
		}
		discount = parsed
	}

	quote := h.service.Quote(discount)
	respondJSON(w, http.StatusOK, QuoteResponseDTO{
		Subtotal: quote.Subtotal.StringFixed(2),
		Discount: quote.Discount.StringFixed(2),
		TaxRate:  quote.TaxRate.String(),
		Tax:      quote.Tax.StringFixed(2),
		Total:    quote.Total.StringFixed(2),
	})
}

// handleCheckoutError maps the checkout failure taxonomy onto HTTP
// status codes. An unknown outcome gets its own code so the UI can show
// the "check order history before retrying" flow.
func handleCheckoutError(w http.ResponseWriter, err error) {
	var validationErr *checkout.ValidationError
	var unknownErr *checkout.UnknownOutcomeError
	var submissionErr *checkout.SubmissionError

	switch {
	case errors.Is(err, checkout.ErrCheckoutInFlight):
		respondError(w, http.StatusConflict, "checkout_in_flight", err.Error())
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, "validation_failed", validationErr.Reason)
	case errors.As(err, &unknownErr):
		respondJSON(w, http.StatusGatewayTimeout, ErrorResponse{
			Error:   "checkout outcome unknown, check order history before retrying",
			Code:    "outcome_unknown",
			Details: unknownErr.IdempotencyKey,
		})
	case errors.As(err, &submissionErr):
		respondError(w, http.StatusBadGateway, "submission_failed", submissionErr.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
