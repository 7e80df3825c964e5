package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bank-spn/manus-pos/internal/cart"
	"github.com/bank-spn/manus-pos/internal/domain"
	"github.com/bank-spn/manus-pos/internal/notify"
	"github.com/bank-spn/manus-pos/internal/pricing"
)

// State of the current checkout attempt.
type State string

const (
	StateIdle       State = "IDLE"
	StateValidating State = "VALIDATING"
	StateSubmitting State = "SUBMITTING"
	StateSucceeded  State = "SUCCEEDED"
	StateFailed     State = "FAILED"
)

// OrderSink is the external service accepting finalized checkout
// requests and owning order lifecycle state.
// Consumers define this interface, not the implementation.
type OrderSink interface {
	SubmitCheckout(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutResult, error)
	ListOrders(ctx context.Context, since time.Time) ([]domain.Order, error)
	Subscribe(onChange func()) notify.Subscription
}

// Payment is the user's checkout input. A nil Tendered means exact
// payment: the tender defaults to the computed total.
type Payment struct {
	TableID  *int64
	Method   domain.PaymentMethod
	Tendered *decimal.Decimal
	Discount decimal.Decimal
}

// Orchestrator runs one checkout attempt at a time for a session:
// Idle -> Validating -> Submitting -> {Succeeded, Failed}. At most one
// submission is in flight; the ledger is cleared exactly once and only
// when the sink reports success.
type Orchestrator struct {
	ledger        *cart.Ledger
	sink          OrderSink
	taxRate       decimal.Decimal
	pricingOpts   pricing.Options
	submitTimeout time.Duration
	clear         func()

	mu    sync.Mutex
	state State
}

func NewOrchestrator(ledger *cart.Ledger, sink OrderSink) *Orchestrator {
	return &Orchestrator{
		ledger:        ledger,
		sink:          sink,
		taxRate:       pricing.DefaultTaxRate,
		pricingOpts:   pricing.DefaultOptions(),
		submitTimeout: 30 * time.Second,
		clear:         ledger.Clear,
	}
}

// WithTaxRate overrides the default tax rate.
func (o *Orchestrator) WithTaxRate(rate decimal.Decimal) *Orchestrator {
	o.taxRate = rate
	return o
}

// WithPricingOptions overrides the discount clamping behavior.
func (o *Orchestrator) WithPricingOptions(opts pricing.Options) *Orchestrator {
	o.pricingOpts = opts
	return o
}

// WithSubmitTimeout overrides the sink call timeout.
func (o *Orchestrator) WithSubmitTimeout(d time.Duration) *Orchestrator {
	o.submitTimeout = d
	return o
}

// WithClear overrides how the cart is destroyed on success. A session
// with write-behind persistence passes its ClearCart here so the saved
// copy dies together with the in-memory ledger; otherwise a restarted
// terminal would restore lines that already became an order.
func (o *Orchestrator) WithClear(clear func()) *Orchestrator {
	o.clear = clear
	return o
}

// State reports the state of the latest checkout attempt.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == "" {
		return StateIdle
	}
	return o.state
}

// Quote computes the price breakdown for the current ledger content.
func (o *Orchestrator) Quote(discount decimal.Decimal) pricing.Quote {
	return pricing.Compute(o.ledger.Subtotal(), discount, o.taxRate, o.pricingOpts)
}

// Submit validates the payment against the ledger, snapshots the ledger
// into a checkout request and sends it to the order sink. On success the
// ledger is cleared and the order identity returned. On any failure the
// ledger is left untouched; the error type tells the caller whether to
// correct input (ValidationError), retry explicitly (SubmissionError) or
// check order history first (UnknownOutcomeError).
func (o *Orchestrator) Submit(ctx context.Context, payment Payment) (*domain.CheckoutResult, error) {
	if err := o.enter(); err != nil {
		return nil, err
	}

	req, err := o.validate(payment)
	if err != nil {
		o.setState(StateIdle)
		return nil, err
	}

	o.setState(StateSubmitting)
	log.Printf("submitting checkout attempt %s (%d lines)", req.IdempotencyKey, len(req.Items))

	submitCtx, cancel := context.WithTimeout(ctx, o.submitTimeout)
	defer cancel()

	result, err := o.sink.SubmitCheckout(submitCtx, req)
	if err != nil {
		o.setState(StateFailed)
		return nil, o.classify(req.IdempotencyKey, err)
	}

	// The only place cart destruction happens as a side effect of a
	// remote call. The in-flight guard makes it exactly-once.
	o.clear()
	o.setState(StateSucceeded)
	log.Printf("checkout attempt %s succeeded: order %s", req.IdempotencyKey, result.OrderNumber)
	return result, nil
}

// enter moves the attempt into Validating unless a submission is
// already outstanding.
func (o *Orchestrator) enter() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateValidating || o.state == StateSubmitting {
		return ErrCheckoutInFlight
	}
	o.state = StateValidating
	return nil
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) validate(payment Payment) (*domain.CheckoutRequest, error) {
	if !payment.Method.IsValid() {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown payment method %q", payment.Method)}
	}

	items := o.ledger.Snapshot()
	if len(items) == 0 {
		return nil, &ValidationError{Reason: "cart is empty"}
	}

	quote := o.Quote(payment.Discount)
	tendered := quote.Total
	if payment.Tendered != nil {
		tendered = *payment.Tendered
	}
	if !quote.CoversTotal(tendered) {
		return nil, &ValidationError{Reason: fmt.Sprintf(
			"insufficient payment amount: tendered %s, total %s",
			tendered.StringFixed(2), quote.Total.StringFixed(2))}
	}

	return &domain.CheckoutRequest{
		TableID:        payment.TableID,
		Items:          items,
		PaymentMethod:  payment.Method,
		PaymentAmount:  tendered,
		Discount:       quote.Discount,
		TaxRate:        o.taxRate,
		IdempotencyKey: uuid.NewString(),
	}, nil
}

// classify maps a sink error onto the failure taxonomy. A deadline or
// an explicitly tagged ambiguous failure means the remote side effect
// may exist; everything else is a known rejection.
func (o *Orchestrator) classify(idempotencyKey string, err error) error {
	if errors.Is(err, ErrUnknownOutcome) || errors.Is(err, context.DeadlineExceeded) {
		return &UnknownOutcomeError{IdempotencyKey: idempotencyKey, Err: err}
	}
	return &SubmissionError{Reason: "order sink rejected the request", Err: err}
}
