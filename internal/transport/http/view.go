package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cimillas/taycan-raffle/internal/app"
	"github.com/cimillas/taycan-raffle/internal/auth"
)

// ViewProvider is the minimal interface needed to project a buyer's numbers.
type ViewProvider interface {
	ViewFor(ctx context.Context, buyerID string) (app.BuyerView, error)
}

// HandleBuyerView returns the authenticated buyer's raffle summary.
func HandleBuyerView(svc ViewProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.ViewFor(r.Context(), auth.BuyerID(r.Context()))
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		resp := buyerViewResponse{
			ConfirmedNumbers: view.ConfirmedNumbers,
			PendingNumbers:   view.PendingNumbers,
			TotalSpentCents:  view.TotalSpentCents,
			OrderCount:       view.OrderCount,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type buyerViewResponse struct {
	ConfirmedNumbers []int `json:"confirmed_numbers"`
	PendingNumbers   []int `json:"pending_numbers"`
	TotalSpentCents  int64 `json:"total_spent_cents"`
	OrderCount       int   `json:"order_count"`
}
