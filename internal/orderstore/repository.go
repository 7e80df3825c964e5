package orderstore

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bank-spn/manus-pos/internal/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrDuplicateAttempt means an order for this idempotency key already
	// exists; the caller should fetch it instead of inserting again.
	ErrDuplicateAttempt = errors.New("order for this checkout attempt already exists")

	ErrIllegalTransition = errors.New("illegal order status transition")
)

// PaymentRecord captures how an order was paid at the counter.
type PaymentRecord struct {
	Method domain.PaymentMethod
	Amount decimal.Decimal
}

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order, idempotencyKey string, pay PaymentRecord) (*domain.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	ListOrdersSince(ctx context.Context, since time.Time) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, next domain.OrderStatus) (*domain.Order, error)
	RunMigrations(*Credentials) error
	Close() error
}
