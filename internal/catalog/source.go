package catalog

import (
	"context"

	"github.com/bank-spn/manus-pos/internal/domain"
	"github.com/bank-spn/manus-pos/internal/notify"
)

// CatalogSource is the external provider of product and category
// listings. Listings are active-only; Subscribe delivers at least one
// notification per relevant mutation.
// Consumers define this interface, not the backing store.
type CatalogSource interface {
	ListActiveCategories(ctx context.Context) ([]domain.Category, error)
	ListActiveProducts(ctx context.Context) ([]domain.Product, error)
	Subscribe(onChange func()) notify.Subscription
}

// TableSource lists the active dining tables.
type TableSource interface {
	ListActiveTables(ctx context.Context) ([]domain.Table, error)
}

// Snapshot is a point-in-time copy of the active catalog listings, the
// unit cached and served to the view.
type Snapshot struct {
	Products   []domain.Product  `json:"products"`
	Categories []domain.Category `json:"categories"`
}
