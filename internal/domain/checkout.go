package domain

import "github.com/shopspring/decimal"

// CheckoutLine is a ledger line frozen at submit time. Name and price are
// snapshots, not live catalog references, so a concurrent catalog edit
// cannot alter an in-flight order.
type CheckoutLine struct {
	ProductID int64           `json:"product_id"`
	Name      MultiLang       `json:"name"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
}

type CheckoutRequest struct {
	TableID        *int64          `json:"table_id,omitempty"`
	Items          []CheckoutLine  `json:"items"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	PaymentAmount  decimal.Decimal `json:"payment_amount"`
	Discount       decimal.Decimal `json:"discount"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	IdempotencyKey string          `json:"idempotency_key"`
}

type CheckoutResult struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
}
