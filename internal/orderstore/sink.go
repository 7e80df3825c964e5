package orderstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bank-spn/manus-pos/internal/checkout"
	"github.com/bank-spn/manus-pos/internal/domain"
	"github.com/bank-spn/manus-pos/internal/notify"
	"github.com/bank-spn/manus-pos/internal/pricing"
)

// EventPublisher pushes order change events to the notification topic.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event notify.OrderEvent) error
}

// StoreSink is the local order sink: checkout requests are persisted in
// Postgres instead of being forwarded to a remote ordering service.
// Totals are recomputed here so a tampered request cannot underpay.
type StoreSink struct {
	repo        OrderRepository
	publisher   EventPublisher
	hub         *notify.Hub
	pricingOpts pricing.Options
}

func NewStoreSink(repo OrderRepository, publisher EventPublisher) *StoreSink {
	return &StoreSink{
		repo:        repo,
		publisher:   publisher,
		hub:         notify.NewHub(),
		pricingOpts: pricing.DefaultOptions(),
	}
}

func (s *StoreSink) SubmitCheckout(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, line := range req.Items {
		subtotal = subtotal.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	quote := pricing.Compute(subtotal, req.Discount, req.TaxRate, s.pricingOpts)
	if !quote.CoversTotal(req.PaymentAmount) {
		return nil, fmt.Errorf("payment amount %s does not cover total %s",
			req.PaymentAmount.StringFixed(2), quote.Total.StringFixed(2))
	}

	order := buildOrder(req, quote)
	pay := PaymentRecord{Method: req.PaymentMethod, Amount: req.PaymentAmount}

	created, err := s.repo.CreateOrder(ctx, order, req.IdempotencyKey, pay)
	if errors.Is(err, ErrDuplicateAttempt) {
		// Replay of an attempt whose first confirmation was lost: the
		// order already exists, return its identity again.
		existing, getErr := s.repo.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
		if getErr != nil {
			return nil, fmt.Errorf("%w: duplicate attempt lookup failed: %v", checkout.ErrUnknownOutcome, getErr)
		}
		log.Printf("checkout attempt %s replayed, returning order %s", req.IdempotencyKey, existing.OrderNumber)
		return &domain.CheckoutResult{OrderID: existing.ID, OrderNumber: existing.OrderNumber}, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			// Interrupted mid-write: the transaction may or may not have
			// committed from the caller's point of view.
			return nil, fmt.Errorf("%w: %v", checkout.ErrUnknownOutcome, err)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.announce(created)
	return &domain.CheckoutResult{OrderID: created.ID, OrderNumber: created.OrderNumber}, nil
}

// ListOrders returns order history at or after the given time.
func (s *StoreSink) ListOrders(ctx context.Context, since time.Time) ([]domain.Order, error) {
	return s.repo.ListOrdersSince(ctx, since)
}

// AdvanceOrder moves an order to its next lifecycle status and notifies
// subscribers.
func (s *StoreSink) AdvanceOrder(ctx context.Context, orderID int64, next domain.OrderStatus) (*domain.Order, error) {
	order, err := s.repo.UpdateOrderStatus(ctx, orderID, next)
	if err != nil {
		return nil, err
	}
	s.announce(order)
	return order, nil
}

// Subscribe registers a callback invoked after any order mutation.
func (s *StoreSink) Subscribe(onChange func()) notify.Subscription {
	return s.hub.Subscribe(onChange)
}

func (s *StoreSink) announce(order *domain.Order) {
	if s.publisher != nil {
		event := notify.OrderEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Status:      order.Status.String(),
			OccurredAt:  time.Now(),
		}
		// Publishing is best-effort; the order is already durable.
		pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.PublishOrderEvent(pubCtx, event); err != nil {
			log.Printf("error publishing order event for %s: %v", order.OrderNumber, err)
		}
	}
	s.hub.Broadcast()
}

func validateRequest(req *domain.CheckoutRequest) error {
	if len(req.Items) == 0 {
		return errors.New("checkout request has no items")
	}
	if !req.PaymentMethod.IsValid() {
		return fmt.Errorf("unknown payment method %q", req.PaymentMethod)
	}
	if req.IdempotencyKey == "" {
		return errors.New("checkout request has no idempotency key")
	}
	for _, line := range req.Items {
		if line.Qty <= 0 {
			return fmt.Errorf("product %d has non-positive quantity %d", line.ProductID, line.Qty)
		}
		if line.Price.IsNegative() {
			return fmt.Errorf("product %d has negative price", line.ProductID)
		}
	}
	return nil
}

func buildOrder(req *domain.CheckoutRequest, quote pricing.Quote) *domain.Order {
	order := &domain.Order{
		TableID:  req.TableID,
		Status:   domain.OrderStatusConfirmed,
		Subtotal: quote.Subtotal,
		Tax:      quote.Tax,
		Discount: quote.Discount,
		Total:    quote.Total,
	}
	for _, line := range req.Items {
		qty := decimal.NewFromInt(int64(line.Qty))
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Qty:       line.Qty,
			Price:     line.Price,
			Total:     line.Price.Mul(qty),
		})
	}
	return order
}
