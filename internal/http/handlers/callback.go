package handlers

import (
	"encoding/json"
	"net/http"

	"advtopup/internal/core/checkout"

	"github.com/rs/zerolog/log"
)

// PaymentCallback ingests the notification posted by the hosted checkout's
// redirect page. Unmatched or late callbacks are acknowledged and dropped;
// the polling loop remains the fallback path.
func PaymentCallback(mgr *checkout.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cb checkout.Callback
		if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		if cb.Type != checkout.CallbackType || cb.OrderID == "" {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}

		delivered := mgr.Deliver(cb)
		if !delivered {
			log.Debug().Str("order_id", cb.OrderID).Msg("callback for unknown or resolved session dropped")
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "delivered": delivered})
	}
}
