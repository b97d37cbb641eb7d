package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cimillas/taycan-raffle/internal/auth"
	"github.com/cimillas/taycan-raffle/internal/domain"
)

// CheckoutStarter is the minimal interface needed to start a checkout.
type CheckoutStarter interface {
	Checkout(ctx context.Context, buyerID string, quantity int) (string, error)
}

// HandleCheckout returns an HTTP handler that sells raffle entries to the
// authenticated buyer and answers with the hosted payment redirect.
func HandleCheckout(svc CheckoutStarter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		redirectURL, err := svc.Checkout(r.Context(), auth.BuyerID(r.Context()), req.Quantity)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidQuantity):
				writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
			case errors.Is(err, domain.ErrUnauthorized):
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
			case errors.Is(err, domain.ErrSupplyExhausted):
				writeError(w, http.StatusConflict, codeSupplyExhausted, err.Error())
			case errors.Is(err, domain.ErrAllocationExhausted):
				writeError(w, http.StatusConflict, codeAllocationExhausted, err.Error())
			case errors.Is(err, domain.ErrUpstreamTimeout):
				writeError(w, http.StatusBadGateway, codeUpstreamTimeout, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(checkoutResponse{RedirectURL: redirectURL})
	}
}

type checkoutRequest struct {
	Quantity int `json:"quantity"`
}

type checkoutResponse struct {
	RedirectURL string `json:"redirect_url"`
}
