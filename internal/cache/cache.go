package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bank-spn/manus-pos/internal/catalog"
)

// cacheOpTimeout bounds best-effort cache maintenance calls.
const cacheOpTimeout = time.Second

// CatalogCache holds the latest catalog snapshot so that terminal
// restarts and view reloads do not always hit the backing store.
type CatalogCache interface {
	Get(ctx context.Context) (*catalog.Snapshot, error)
	Set(ctx context.Context, snapshot *catalog.Snapshot) error
	Delete(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")
