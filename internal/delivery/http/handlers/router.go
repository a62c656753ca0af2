package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *BillingHandler, metrics http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	r.Route("/v1/billing", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Post("/checkout", h.Checkout)
		r.Get("/verify", h.VerifyPayment)
		r.Get("/checkout-failures", h.ListCheckoutFailures)

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", h.GetWallet)
			r.Post("/topup", h.TopUpWallet)
			r.Get("/topup/verify", h.VerifyTopUp)
			r.Post("/transfer", h.Transfer)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Get("/{id}", h.GetOrder)
			r.Patch("/{id}/tracker", h.UpdateTracker)
			r.Post("/{id}/refund", h.RefundOrder)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Get("/{id}", h.GetTransaction)
		})
	})

	r.Route("/v1/notifications/queue", func(r chi.Router) {
		r.Get("/", h.QueueStatus)
		r.Delete("/", h.ClearQueue)
	})

	return r
}
