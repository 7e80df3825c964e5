package catalog

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bank-spn/manus-pos/internal/domain"
	"github.com/bank-spn/manus-pos/internal/notify"
)

// LiveView holds the latest catalog snapshot and keeps it current by
// re-reading the source whenever a change notification arrives. Reads
// never block on the source; they serve the last good snapshot. A failed
// reload keeps the previous snapshot and logs a warning, so a listing
// error degrades to stale (or empty) data instead of an error surface.
type LiveView struct {
	source        CatalogSource
	reloadTimeout time.Duration

	mu         sync.RWMutex
	products   []domain.Product
	categories []domain.Category

	sfg singleflight.Group // collapses concurrent reloads
	sub notify.Subscription
}

func NewLiveView(source CatalogSource) *LiveView {
	return &LiveView{
		source:        source,
		reloadTimeout: 10 * time.Second,
	}
}

// Start performs the initial load and subscribes to source changes.
// An initial load failure is not fatal; the view starts empty and
// repairs itself on the next notification.
func (v *LiveView) Start(ctx context.Context) {
	if err := v.Reload(ctx); err != nil {
		log.Printf("warning: initial catalog load failed, starting empty: %v", err)
	}

	v.sub = v.source.Subscribe(func() {
		ctx, cancel := context.WithTimeout(context.Background(), v.reloadTimeout)
		defer cancel()
		if err := v.Reload(ctx); err != nil {
			log.Printf("warning: catalog reload failed, keeping previous snapshot: %v", err)
		}
	})
}

// Reload re-reads products and categories from the source and swaps the
// snapshot. Concurrent calls are collapsed into a single source read.
func (v *LiveView) Reload(ctx context.Context) error {
	_, err, _ := v.sfg.Do("reload", func() (interface{}, error) {
		products, err := v.source.ListActiveProducts(ctx)
		if err != nil {
			return nil, err
		}
		categories, err := v.source.ListActiveCategories(ctx)
		if err != nil {
			return nil, err
		}

		v.mu.Lock()
		v.products = products
		v.categories = categories
		v.mu.Unlock()
		return nil, nil
	})
	return err
}

// Products applies the view filter to the current snapshot.
func (v *LiveView) Products(categoryID *int64, query string) []domain.Product {
	v.mu.RLock()
	snapshot := v.products
	v.mu.RUnlock()

	return Filter(snapshot, categoryID, query)
}

// Product looks a product up by id in the current snapshot.
func (v *LiveView) Product(id int64) (domain.Product, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	for _, p := range v.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Categories returns the current category snapshot.
func (v *LiveView) Categories() []domain.Category {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]domain.Category, len(v.categories))
	copy(out, v.categories)
	return out
}

// Close cancels the change subscription.
func (v *LiveView) Close() {
	if v.sub != nil {
		v.sub.Cancel()
	}
}
