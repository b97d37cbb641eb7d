package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/cimillas/taycan-raffle/internal/auth"
	"github.com/cimillas/taycan-raffle/internal/clock"
	"github.com/cimillas/taycan-raffle/internal/payment"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Checkout      CheckoutStarter
	Reconcile     EventApplier
	View          ViewProvider
	Verifier      *auth.Verifier
	WebhookSecret string
	Clock         clock.Clock
	Log           *zap.Logger
	CORSOrigins   []string
}

// NewRouter assembles the service routes. The webhook route is outside the
// buyer auth group: it is authenticated by the provider signature instead.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(deps.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", payment.SignatureHeader},
	}))

	r.Get("/health", HealthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/webhooks/payment", HandlePaymentWebhook(deps.Reconcile, deps.WebhookSecret, deps.Clock))

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(deps.Verifier))
			r.Post("/checkout", HandleCheckout(deps.Checkout))
			r.Get("/me/raffles", HandleBuyerView(deps.View))
		})
	})

	r.NotFound(NotFoundHandler().ServeHTTP)

	return r
}
