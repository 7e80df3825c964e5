package cache

import (
	"context"
	"errors"
	"log"

	"github.com/bank-spn/manus-pos/internal/catalog"
	"github.com/bank-spn/manus-pos/internal/domain"
	"github.com/bank-spn/manus-pos/internal/notify"
)

// CachedSource serves catalog listings from a snapshot cache, falling
// back to the inner source on a miss. A change notification invalidates
// the cached snapshot before reaching downstream subscribers, so the
// next read observes the mutation. Cache failures are logged and the
// inner source answers; the cache only ever removes load, never
// correctness.
type CachedSource struct {
	inner catalog.CatalogSource
	cache CatalogCache
}

func NewCachedSource(inner catalog.CatalogSource, cache CatalogCache) *CachedSource {
	return &CachedSource{inner: inner, cache: cache}
}

func (s *CachedSource) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Products, nil
}

func (s *CachedSource) ListActiveCategories(ctx context.Context) ([]domain.Category, error) {
	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Categories, nil
}

func (s *CachedSource) Subscribe(onChange func()) notify.Subscription {
	return s.inner.Subscribe(func() {
		ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
		defer cancel()
		if err := s.cache.Delete(ctx); err != nil {
			log.Printf("cache invalidate error: %v", err)
		}
		onChange()
	})
}

func (s *CachedSource) snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	snapshot, err := s.cache.Get(ctx)
	if err == nil {
		return snapshot, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		log.Printf("cache get error: %v", err)
	}

	products, err := s.inner.ListActiveProducts(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.inner.ListActiveCategories(ctx)
	if err != nil {
		return nil, err
	}

	snapshot = &catalog.Snapshot{Products: products, Categories: categories}
	if errSet := s.cache.Set(ctx, snapshot); errSet != nil {
		log.Printf("cache set error: %v", errSet)
	}
	return snapshot, nil
}
