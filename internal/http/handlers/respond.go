package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"advtopup/internal/domain/wizard"
	"advtopup/internal/gateway/advansispay"
	"advtopup/internal/provider"
	"advtopup/internal/store/repositories"
	"advtopup/internal/upstream"

	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto HTTP statuses. Domain gate failures
// come back 4xx with the message the wizard should display; upstream and
// gateway failures are 502.
func writeError(w http.ResponseWriter, err error) {
	var (
		valErr  *wizard.ValidationError
		provErr *provider.Error
		apiErr  *upstream.APIError
	)

	switch {
	case errors.Is(err, repositories.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	case errors.Is(err, wizard.ErrBusy):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "operation already in progress"})
	case errors.Is(err, wizard.ErrAtFinalStep):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "already at final step"})
	case errors.Is(err, wizard.ErrNotSubmittable):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "purchase is not ready to submit"})
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": valErr.Error(),
			"step":  valErr.Step.String(),
		})
	case errors.As(err, &provErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": provErr.Message,
			"code":  provErr.Code,
		})
	case errors.Is(err, advansispay.ErrNoCheckoutURL):
		log.Error().Err(err).Msg("payment initiation returned no checkout url")
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "payment initiation failed"})
	case errors.As(err, &apiErr):
		log.Error().Err(err).Int("status", apiErr.StatusCode).Msg("upstream call failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": apiErr.Message})
	default:
		log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}
