package ordersink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/bank-spn/manus-pos/internal/checkout"
	"github.com/bank-spn/manus-pos/internal/domain"
	"github.com/bank-spn/manus-pos/internal/notify"
)

// HTTPSink submits checkouts to a remote POS backend over REST/JSON:
// POST {base}/checkout with the request body, GET {base}/orders for
// history. Change notifications come from an externally fed hub.
//
// Submissions run through a circuit breaker so a dead backend fails
// fast instead of piling up in-flight requests. A breaker rejection is
// a plain failure (the request never left), while a transport error
// after the request was sent is tagged as an unknown outcome.
type HTTPSink struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*domain.CheckoutResult]
	hub     *notify.Hub
}

func NewHTTPSink(baseURL string, hub *notify.Hub) *HTTPSink {
	breaker := gobreaker.NewCircuitBreaker[*domain.CheckoutResult](gobreaker.Settings{
		Name:    "order-sink",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &HTTPSink{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		breaker: breaker,
		hub:     hub,
	}
}

type checkoutResponseDTO struct {
	Order *struct {
		ID          int64  `json:"id"`
		OrderNumber string `json:"order_number"`
	} `json:"order,omitempty"`
	Error string `json:"error,omitempty"`
}

func (s *HTTPSink) SubmitCheckout(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	return s.breaker.Execute(func() (*domain.CheckoutResult, error) {
		return s.postCheckout(ctx, req)
	})
}

func (s *HTTPSink) postCheckout(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal checkout request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/checkout", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		if requestNeverSent(err) {
			// Dial failed, so the backend never saw the request; this
			// is a plain rejection the user may simply retry.
			return nil, fmt.Errorf("post checkout: %w", err)
		}
		// The request may have reached the backend before the
		// connection died; the order may or may not exist.
		return nil, fmt.Errorf("post checkout: %v: %w", err, checkout.ErrUnknownOutcome)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read checkout response: %v: %w", err, checkout.ErrUnknownOutcome)
	}

	var dto checkoutResponseDTO
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if json.Unmarshal(raw, &dto) == nil && dto.Error != "" {
			return nil, fmt.Errorf("checkout rejected: %s", dto.Error)
		}
		return nil, fmt.Errorf("checkout rejected: status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(raw, &dto); err != nil || dto.Order == nil {
		// The backend accepted the checkout but the confirmation was
		// lost; the caller must consult order history.
		return nil, fmt.Errorf("malformed checkout confirmation: %w", checkout.ErrUnknownOutcome)
	}

	return &domain.CheckoutResult{
		OrderID:     dto.Order.ID,
		OrderNumber: dto.Order.OrderNumber,
	}, nil
}

// requestNeverSent reports whether the transport error happened before
// the request left the client, so the remote side cannot have acted on
// it. Dial errors (connection refused, no such host) qualify; anything
// after the connection was established does not.
func requestNeverSent(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func (s *HTTPSink) ListOrders(ctx context.Context, since time.Time) ([]domain.Order, error) {
	endpoint := fmt.Sprintf("%s/orders?since=%s", s.baseURL, url.QueryEscape(since.Format(time.RFC3339)))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build orders request: %w", err)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get orders: status %d", resp.StatusCode)
	}

	var orders []domain.Order
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		return nil, fmt.Errorf("decode orders response: %w", err)
	}
	return orders, nil
}

func (s *HTTPSink) Subscribe(onChange func()) notify.Subscription {
	return s.hub.Subscribe(onChange)
}
