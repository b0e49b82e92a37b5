package handlers

import (
	"net/http"

	"advtopup/internal/core/checkout"
	"advtopup/internal/services/purchase"

	"github.com/go-chi/chi/v5"
)

// GetOrder returns the purchase record for an order id.
func GetOrder(svc *purchase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.GetOrder(r.Context(), chi.URLParam(r, "orderId"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// CheckoutClosed records that the customer closed the checkout window.
// Signals for unknown or already-resolved sessions are acknowledged as
// no-ops.
func CheckoutClosed(mgr *checkout.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acknowledged := mgr.NotifyClosed(chi.URLParam(r, "orderId"))
		writeJSON(w, http.StatusOK, map[string]any{"acknowledged": acknowledged})
	}
}
