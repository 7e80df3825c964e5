package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig holds the handlers the terminal API mounts.
type RouterConfig struct {
	Catalog        *CatalogHandler
	Cart           *CartHandler
	Checkout       *CheckoutHandler
	Orders         *OrdersHandler
	RequestTimeout time.Duration
}

// NewRouter assembles the terminal HTTP API.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", cfg.Catalog.ListProducts)
		r.Get("/categories", cfg.Catalog.ListCategories)
		r.Get("/tables", cfg.Catalog.ListTables)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cfg.Cart.GetCart)
			r.Delete("/", cfg.Cart.ClearCart)
			r.Post("/items", cfg.Cart.AddItem)
			r.Put("/items/{product_id}", cfg.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", cfg.Cart.RemoveItem)
			r.Put("/table", cfg.Cart.SelectTable)
			r.Put("/language", cfg.Cart.SetLanguage)
		})

		r.Post("/checkout", cfg.Checkout.SubmitCheckout)
		r.Get("/checkout/state", cfg.Checkout.GetState)
		r.Get("/quote", cfg.Checkout.GetQuote)

		r.Get("/orders", cfg.Orders.ListOrders)
		if cfg.Orders.CanAdvance() {
			r.Post("/orders/{order_id}/status", cfg.Orders.AdvanceOrder)
		}
	})

	return r
}
