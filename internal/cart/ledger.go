package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/bank-spn/manus-pos/internal/domain"
)

// Line is a (product snapshot, quantity) pair. The product is copied at
// add time, so later catalog price changes do not affect the ledger.
type Line struct {
	Product domain.Product `json:"product" bson:"product"`
	Qty     int            `json:"qty" bson:"qty"`
}

// Ledger holds the session's cart lines in insertion order, at most one
// line per product id, never a line with qty <= 0. All operations are
// safe no-ops on invalid input; this is interactive UI state, not a
// transactional store.
type Ledger struct {
	mu    sync.RWMutex
	lines []Line
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Add increases the quantity of the existing line for product.ID by qty,
// or appends a new line. Non-positive qty is ignored.
func (l *Ledger) Add(product domain.Product, qty int) {
	if qty <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.lines {
		if l.lines[i].Product.ID == product.ID {
			l.lines[i].Qty += qty
			return
		}
	}
	l.lines = append(l.lines, Line{Product: product, Qty: qty})
}

// AddOne is Add with the default quantity of one.
func (l *Ledger) AddOne(product domain.Product) {
	l.Add(product, 1)
}

// Remove deletes the line for productID. Absent product is a no-op.
func (l *Ledger) Remove(productID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removeLocked(productID)
}

func (l *Ledger) removeLocked(productID int64) {
	for i := range l.lines {
		if l.lines[i].Product.ID == productID {
			l.lines = append(l.lines[:i], l.lines[i+1:]...)
			return
		}
	}
}

// SetQuantity sets the line quantity to exactly qty (not additive).
// qty <= 0 removes the line. Absent product is a no-op.
func (l *Ledger) SetQuantity(productID int64, qty int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if qty <= 0 {
		l.removeLocked(productID)
		return
	}
	for i := range l.lines {
		if l.lines[i].Product.ID == productID {
			l.lines[i].Qty = qty
			return
		}
	}
}

// Clear empties the ledger unconditionally.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
}

// TotalItemCount is the sum of all line quantities.
func (l *Ledger) TotalItemCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := 0
	for _, line := range l.lines {
		total += line.Qty
	}
	return total
}

// Subtotal sums unit price times quantity over all lines, using the
// prices stored at add time.
func (l *Ledger) Subtotal() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	sum := decimal.Zero
	for _, line := range l.lines {
		sum = sum.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	return sum
}

// Qty returns the current quantity for productID, 0 if not in the ledger.
func (l *Ledger) Qty(productID int64) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, line := range l.lines {
		if line.Product.ID == productID {
			return line.Qty
		}
	}
	return 0
}

// Lines returns a copy of the ledger lines in insertion order.
func (l *Ledger) Lines() []Line {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Line, len(l.lines))
	copy(out, l.lines)
	return out
}

// Snapshot freezes the ledger into checkout lines: product id, name and
// price per line as they are right now.
func (l *Ledger) Snapshot() []domain.CheckoutLine {
	l.mu.RLock()
	defer l.mu.RUnlock()

	items := make([]domain.CheckoutLine, len(l.lines))
	for i, line := range l.lines {
		items[i] = domain.CheckoutLine{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Qty:       line.Qty,
			Price:     line.Product.Price,
		}
	}
	return items
}

// Replace swaps the ledger content wholesale. Used when restoring a
// persisted session; lines with non-positive quantities are dropped and
// duplicate product ids collapsed so the ledger invariants hold.
func (l *Ledger) Replace(lines []Line) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines = nil
	for _, line := range lines {
		if line.Qty <= 0 {
			continue
		}
		merged := false
		for i := range l.lines {
			if l.lines[i].Product.ID == line.Product.ID {
				l.lines[i].Qty += line.Qty
				merged = true
				break
			}
		}
		if !merged {
			l.lines = append(l.lines, line)
		}
	}
}
