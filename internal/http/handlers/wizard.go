package handlers

import (
	"encoding/json"
	"net/http"

	"advtopup/internal/domain/operator"
	"advtopup/internal/domain/wizard"
	"advtopup/internal/services/purchase"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// wizardResponse is the session state plus the amount candidates derived
// from the resolved operator, so clients never recompute catalog policy.
type wizardResponse struct {
	*wizard.State
	QuickAmounts []float64         `json:"quickAmounts,omitempty"`
	Bundles      []operator.Bundle `json:"bundles,omitempty"`
}

func wizardView(st *wizard.State) wizardResponse {
	resp := wizardResponse{State: st}
	if st.Operator != nil {
		if st.Flow == wizard.FlowData {
			resp.Bundles = st.Operator.Bundles()
		} else {
			resp.QuickAmounts = st.Operator.QuickAmounts()
		}
	}
	return resp
}

type startWizardReq struct {
	Flow        string `json:"flow" validate:"required,oneof=airtime data"`
	CountryCode string `json:"countryCode" validate:"omitempty,len=2,alpha"`
	SenderPhone string `json:"senderPhone" validate:"required,min=7"`
	Email       string `json:"email" validate:"required,email"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
}

// StartWizard opens a new purchase wizard session.
func StartWizard(svc *purchase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in startWizardReq
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}

		st, err := svc.Start(r.Context(), purchase.StartInput{
			Flow:        wizard.Flow(in.Flow),
			CountryCode: in.CountryCode,
			SenderPhone: in.SenderPhone,
			Email:       in.Email,
			FirstName:   in.FirstName,
			LastName:    in.LastName,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, wizardView(st))
	}
}

// GetWizard returns the current session state.
func GetWizard(svc *purchase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Get(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wizardView(st))
	}
}

type advanceWizardReq struct {
	CountryCode    string  `json:"countryCode" validate:"omitempty,len=2,alpha"`
	RecipientPhone string  `json:"recipientPhone" validate:"omitempty,min=7"`
	Amount         float64 `json:"amount" validate:"omitempty,gt=0"`
	BundleAmount   float64 `json:"bundleAmount" validate:"omitempty,gt=0"`
}

// AdvanceWizard applies the current step's input and moves forward. The
// phone step resolves the operator before the move commits.
func AdvanceWizard(svc *purchase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in advanceWizardReq
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
			if err := validate.Struct(in); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
				return
			}
		}

		st, err := svc.Advance(r.Context(), chi.URLParam(r, "sessionId"), purchase.AdvanceInput{
			CountryCode:    in.CountryCode,
			RecipientPhone: in.RecipientPhone,
			Amount:         in.Amount,
			BundleAmount:   in.BundleAmount,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wizardView(st))
	}
}

// RetreatWizard steps the session back one step.
func RetreatWizard(svc *purchase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Retreat(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wizardView(st))
	}
}

// SubmitWizard runs the terminal purchase action and hands back the hosted
// checkout session. The payment outcome resolves in the background; clients
// follow up on the order endpoint.
func SubmitWizard(svc *purchase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := svc.Submit(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, resp)
	}
}
