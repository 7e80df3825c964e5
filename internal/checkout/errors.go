package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrCheckoutInFlight rejects a submit attempt while another
	// submission from the same session is outstanding.
	ErrCheckoutInFlight = errors.New("a checkout submission is already in flight")

	// ErrUnknownOutcome tags a sink error whose remote side effect is
	// ambiguous: the request may or may not have been accepted.
	// Order sinks wrap transport failures with it when the request has
	// already left the client.
	ErrUnknownOutcome = errors.New("checkout outcome unknown")
)

// ValidationError rejects a checkout before it reaches the order sink.
// The user corrects the input and retries; no remote state was touched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout validation failed: %s", e.Reason)
}

// SubmissionError reports a sink rejection or a transport failure whose
// outcome is known to be negative. The ledger is preserved; retry is the
// user's explicit action.
type SubmissionError struct {
	Reason string
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("checkout submission failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("checkout submission failed: %s", e.Reason)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// UnknownOutcomeError reports an ambiguous network result. The ledger is
// preserved and the caller should check order history before retrying;
// the idempotency key identifies the attempt in question.
type UnknownOutcomeError struct {
	IdempotencyKey string
	Err            error
}

func (e *UnknownOutcomeError) Error() string {
	return fmt.Sprintf("checkout outcome unknown (attempt %s), check order history before retrying: %v",
		e.IdempotencyKey, e.Err)
}

func (e *UnknownOutcomeError) Unwrap() error { return e.Err }
