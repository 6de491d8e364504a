package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the storefront API under /api/v1.
func NewRouter(cart *CartHandler, summary *SummaryHandler, voucher *VoucherHandler, customer *CustomerHandler, requestTimeout time.Duration) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(HeaderAuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cart.GetCart)
			r.Delete("/", cart.ClearCart)
			r.Post("/items", cart.AddItem)
			r.Put("/items/{item_key}", cart.UpdateQuantity)
			r.Delete("/items/{item_key}", cart.RemoveItem)
			r.Post("/items/{item_key}/image", cart.AttachImage)
			r.Delete("/items/{item_key}/image", cart.DetachImage)
			r.Get("/summary", summary.GetSummary)
			r.Post("/voucher", voucher.ApplyVoucher)
		})
		r.Get("/previews/{handle}", cart.GetPreview)
		r.Get("/customers/lookup", customer.Lookup)
	})

	return r
}
