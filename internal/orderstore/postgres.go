package orderstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	_ "github.com/lib/pq"

	"github.com/bank-spn/manus-pos/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

// CreateOrder inserts the order, its items, and the payment row in one
// transaction, assigning the daily receipt number from a sequence. A
// second insert with the same idempotency key returns ErrDuplicateAttempt
// without touching the tables.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order, idempotencyKey string, pay PaymentRecord) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT nextval('pos_order_number_seq')`).Scan(&seq); err != nil {
		return nil, fmt.Errorf("next order number: %w", err)
	}
	orderNumber := fmt.Sprintf("POS-%s-%04d", time.Now().Format("20060102"), seq)

	insertOrder := `INSERT INTO orders (order_number, idempotency_key, table_id, status, subtotal, tax, discount, total, created_at, updated_at)
	                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	                RETURNING id, created_at, updated_at`

	created := *order
	created.OrderNumber = orderNumber
	insertErr := tx.QueryRowContext(ctx, insertOrder,
		orderNumber,
		idempotencyKey,
		order.TableID,
		order.Status,
		order.Subtotal,
		order.Tax,
		order.Discount,
		order.Total,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateAttempt
		}
		return nil, fmt.Errorf("insert order: %w", insertErr)
	}

	insertItem := `INSERT INTO order_items (order_id, product_id, name_th, name_en, qty, price, total, created_at)
	               VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	               RETURNING id, created_at`

	created.Items = make([]domain.OrderItem, len(order.Items))
	for i, item := range order.Items {
		it := item
		it.OrderID = created.ID
		if err := tx.QueryRowContext(ctx, insertItem,
			created.ID,
			item.ProductID,
			item.Name.TH,
			item.Name.EN,
			item.Qty,
			item.Price,
			item.Total,
		).Scan(&it.ID, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
		created.Items[i] = it
	}

	insertPayment := `INSERT INTO payments (order_id, method, amount, created_at)
	                  VALUES ($1, $2, $3, NOW())`
	if _, err := tx.ExecContext(ctx, insertPayment, created.ID, pay.Method, pay.Amount); err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}
	return &created, nil
}

func (r *Repository) GetOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	query := `SELECT id, order_number, table_id, status, subtotal, tax, discount, total, created_at, updated_at
	          FROM orders WHERE idempotency_key = $1`

	order, err := r.scanOrder(r.db.QueryRowContext(ctx, query, key))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT id, order_number, table_id, status, subtotal, tax, discount, total, created_at, updated_at
	          FROM orders WHERE id = $1`

	order, err := r.scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrdersSince returns orders created at or after the given time,
// newest first, each with its items attached.
func (r *Repository) ListOrdersSince(ctx context.Context, since time.Time) ([]domain.Order, error) {
	query := `SELECT id, order_number, table_id, status, subtotal, tax, discount, total, created_at, updated_at
	          FROM orders WHERE created_at >= $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query orders since: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// UpdateOrderStatus advances the order lifecycle. The transition is
// checked against the current status inside the transaction, so two
// concurrent updates cannot both succeed on the same step.
func (r *Repository) UpdateOrderStatus(ctx context.Context, orderID int64, next domain.OrderStatus) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current domain.OrderStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock order row: %w", err)
	}

	if !domain.CanTransitionTo(current, next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, next)
	}

	query := `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2
	          RETURNING id, order_number, table_id, status, subtotal, tax, discount, total, created_at, updated_at`
	order, err := r.scanOrder(tx.QueryRowContext(ctx, query, next, orderID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit status update: %w", err)
	}

	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var tableID sql.NullInt64
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&tableID,
		&order.Status,
		&order.Subtotal,
		&order.Tax,
		&order.Discount,
		&order.Total,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order row: %w", err)
	}
	if tableID.Valid {
		order.TableID = &tableID.Int64
	}
	return &order, nil
}

func (r *Repository) loadItems(ctx context.Context, order *domain.Order) error {
	query := `SELECT id, order_id, product_id, name_th, name_en, qty, price, total, created_at
	          FROM order_items WHERE order_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name.TH,
			&item.Name.EN,
			&item.Qty,
			&item.Price,
			&item.Total,
			&item.CreatedAt,
		); err != nil {
			return fmt.Errorf("scan order item row: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}
