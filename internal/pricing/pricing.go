package pricing

import "github.com/shopspring/decimal"

// DefaultTaxRate is the VAT rate applied when the caller does not
// provide one.
var DefaultTaxRate = decimal.RequireFromString("0.07")

// Options control quote computation.
type Options struct {
	// ClampDiscount limits the discount to [0, subtotal]. The legacy
	// client let a discount exceed the subtotal, producing a negative
	// taxable base; clamping is the default here and the pass-through
	// behavior stays available for compatibility.
	ClampDiscount bool
}

func DefaultOptions() Options {
	return Options{ClampDiscount: true}
}

// Quote is the full price breakdown for a ledger snapshot.
type Quote struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	TaxableBase decimal.Decimal `json:"taxable_base"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// Compute derives the quote from a subtotal, a discount amount and a tax
// rate. Pure function; all arithmetic is decimal, rounding happens only
// at presentation time.
func Compute(subtotal, discount, taxRate decimal.Decimal, opts Options) Quote {
	if opts.ClampDiscount {
		if discount.IsNegative() {
			discount = decimal.Zero
		}
		if discount.GreaterThan(subtotal) {
			discount = subtotal
		}
	}

	base := subtotal.Sub(discount)
	tax := base.Mul(taxRate)

	return Quote{
		Subtotal:    subtotal,
		Discount:    discount,
		TaxableBase: base,
		TaxRate:     taxRate,
		Tax:         tax,
		Total:       base.Add(tax),
	}
}

// Change is the amount returned to the customer for the given tender.
// Negative change means insufficient tender.
func (q Quote) Change(tendered decimal.Decimal) decimal.Decimal {
	return tendered.Sub(q.Total)
}

// CoversTotal reports whether the tender is sufficient to pay the quote.
func (q Quote) CoversTotal(tendered decimal.Decimal) bool {
	return tendered.GreaterThanOrEqual(q.Total)
}
