package catalogstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"

	"github.com/bank-spn/manus-pos/internal/domain"
	"github.com/bank-spn/manus-pos/internal/notify"
)

// Repository is a local catalog store over SQLite, used when the
// terminal runs against an embedded catalog instead of a hosted one.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *Repository) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name_th, name_en, description_th, description_en,
		       price, sku, image_url, category_id, is_active, created_at, updated_at
		FROM products
		WHERE is_active = 1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		var descTH, descEN, sku, imageURL sql.NullString
		var categoryID sql.NullInt64

		err := rows.Scan(
			&p.ID,
			&p.Name.TH,
			&p.Name.EN,
			&descTH,
			&descEN,
			&p.Price,
			&sku,
			&imageURL,
			&categoryID,
			&p.IsActive,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}

		if descTH.Valid || descEN.Valid {
			p.Description = &domain.MultiLang{TH: descTH.String, EN: descEN.String}
		}
		if sku.Valid {
			p.SKU = &sku.String
		}
		if imageURL.Valid {
			p.ImageURL = &imageURL.String
		}
		if categoryID.Valid {
			p.CategoryID = &categoryID.Int64
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *Repository) ListActiveCategories(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT id, name_th, name_en, description_th, description_en,
		       image_url, sort_order, is_active, created_at, updated_at
		FROM categories
		WHERE is_active = 1
		ORDER BY sort_order
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		var descTH, descEN, imageURL sql.NullString

		err := rows.Scan(
			&c.ID,
			&c.Name.TH,
			&c.Name.EN,
			&descTH,
			&descEN,
			&imageURL,
			&c.SortOrder,
			&c.IsActive,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}

		if descTH.Valid || descEN.Valid {
			c.Description = &domain.MultiLang{TH: descTH.String, EN: descEN.String}
		}
		if imageURL.Valid {
			c.ImageURL = &imageURL.String
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return categories, nil
}

func (r *Repository) ListActiveTables(ctx context.Context) ([]domain.Table, error) {
	query := `
		SELECT id, table_number, name_th, name_en, capacity, is_active, created_at, updated_at
		FROM tables
		WHERE is_active = 1
		ORDER BY table_number
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []domain.Table
	for rows.Next() {
		var t domain.Table
		var nameTH, nameEN sql.NullString

		err := rows.Scan(
			&t.ID,
			&t.TableNumber,
			&nameTH,
			&nameEN,
			&t.Capacity,
			&t.IsActive,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}

		if nameTH.Valid || nameEN.Valid {
			t.Name = &domain.MultiLang{TH: nameTH.String, EN: nameEN.String}
		}
		tables = append(tables, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tables, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Source pairs the repository with a change feed hub so it satisfies
// the catalog source contract. The hub is fed by the Kafka change feed.
type Source struct {
	*Repository
	hub *notify.Hub
}

func NewSource(repo *Repository, hub *notify.Hub) *Source {
	return &Source{Repository: repo, hub: hub}
}

func (s *Source) Subscribe(onChange func()) notify.Subscription {
	return s.hub.Subscribe(onChange)
}
