package httpx

import (
	"encoding/json"
	"net/http"

	"advtopup/internal/config"
	"advtopup/internal/core/checkout"
	"advtopup/internal/http/handlers"
	middlewarex "advtopup/internal/http/middleware"
	"advtopup/internal/services/history"
	"advtopup/internal/services/purchase"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RouterDependencies holds all dependencies for the HTTP router
type RouterDependencies struct {
	Config          config.Cfg
	PurchaseService *purchase.Service
	HistoryService  *history.Service
	CheckoutManager *checkout.Manager
}

// NewRouter wires the purchase wizard API, order lookups and the public
// payment-callback webhook.
func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	// Health check (public)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"env":    deps.Config.App.Env,
		})
	})

	// API routes (protected by the client bearer token)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarex.BearerAuth(deps.Config.Sec.APIToken))

		// Purchase wizard
		r.Post("/wizard", handlers.StartWizard(deps.PurchaseService))
		r.Get("/wizard/{sessionId}", handlers.GetWizard(deps.PurchaseService))
		r.Post("/wizard/{sessionId}/advance", handlers.AdvanceWizard(deps.PurchaseService))
		r.Post("/wizard/{sessionId}/back", handlers.RetreatWizard(deps.PurchaseService))
		r.Post("/wizard/{sessionId}/submit", handlers.SubmitWizard(deps.PurchaseService))

		// Orders
		r.Get("/orders/{orderId}", handlers.GetOrder(deps.PurchaseService))
		r.Post("/orders/{orderId}/checkout-closed", handlers.CheckoutClosed(deps.CheckoutManager))

		// Transaction history
		r.Get("/transactions", handlers.ListTransactions(deps.HistoryService))
	})

	// Webhook endpoints (public; payloads are validated and matched by
	// order id, unmatched notifications are dropped)
	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/advansispay/callback", handlers.PaymentCallback(deps.CheckoutManager))
	})

	return r
}
