package domain

import "fmt"

// PaymentMethod is a closed enumeration; anything outside the four
// known values is rejected at the checkout boundary.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentQR       PaymentMethod = "qr"
	PaymentTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentQR, PaymentTransfer:
		return true
	}
	return false
}

func (m PaymentMethod) String() string {
	return string(m)
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	if !m.IsValid() {
		return "", fmt.Errorf("unknown payment method %q", s)
	}
	return m, nil
}
