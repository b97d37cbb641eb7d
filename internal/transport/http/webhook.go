package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cimillas/taycan-raffle/internal/clock"
	"github.com/cimillas/taycan-raffle/internal/domain"
	"github.com/cimillas/taycan-raffle/internal/payment"
)

const maxEventBody = 1 << 20

// EventApplier is the minimal interface needed to reconcile a payment event.
type EventApplier interface {
	Apply(ctx context.Context, ev payment.Event) error
}

// HandlePaymentWebhook returns the intake handler for signed provider events.
// The signature is checked before anything else; an unverified payload causes
// no side effect. Unknown sessions answer 404 so the provider retries after
// the order commit becomes visible.
func HandlePaymentWebhook(svc EventApplier, webhookSecret string, clk clock.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "unreadable body")
			return
		}

		sig := r.Header.Get(payment.SignatureHeader)
		if err := payment.VerifySignature(body, sig, webhookSecret, clk.Now(), payment.DefaultSignatureTolerance); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidSignature, "invalid signature")
			return
		}

		ev, err := payment.ParseEvent(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeMalformedEvent, "malformed event")
			return
		}

		if err := svc.Apply(r.Context(), ev); err != nil {
			if errors.Is(err, domain.ErrOrderNotFound) {
				writeError(w, http.StatusNotFound, codeOrderNotFound, "order not found, retry later")
				return
			}
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]bool{"received": true})
	}
}
