package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cimillas/taycan-raffle/internal/app"
	"github.com/cimillas/taycan-raffle/internal/auth"
	"github.com/cimillas/taycan-raffle/internal/clock"
	"github.com/cimillas/taycan-raffle/internal/config"
	"github.com/cimillas/taycan-raffle/internal/logger"
	"github.com/cimillas/taycan-raffle/internal/payment"
	"github.com/cimillas/taycan-raffle/internal/pricing"
	"github.com/cimillas/taycan-raffle/internal/storage/postgres"
	transporthttp "github.com/cimillas/taycan-raffle/internal/transport/http"
	"github.com/cimillas/taycan-raffle/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zaplog, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = zaplog.Sync() }()

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		return err
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		return err
	}

	repo := postgres.NewOrderRepository(pool)
	sessions := payment.NewClient(cfg.Payment.BaseURL, cfg.Payment.SecretKey, cfg.Payment.Timeout)

	tariff := pricing.DefaultTariff()
	tariff.MinPurchase = cfg.Raffle.MinPurchase
	tariff.MaxPurchase = cfg.Raffle.MaxPurchase

	checkoutSvc := app.NewCheckoutService(repo, sessions, clock.NewSystem(), zaplog,
		app.WithTariff(tariff),
		app.WithTotalSupply(cfg.Raffle.TotalSupply),
		app.WithRedirectURLs(cfg.Payment.SuccessURL, cfg.Payment.CancelURL),
	)
	reconcileSvc := app.NewReconcileService(repo, clock.NewSystem(), zaplog)
	viewSvc := app.NewViewService(repo)

	router := transporthttp.NewRouter(transporthttp.RouterDeps{
		Checkout:      checkoutSvc,
		Reconcile:     reconcileSvc,
		View:          viewSvc,
		Verifier:      auth.NewVerifier(cfg.TokenSecret),
		WebhookSecret: cfg.Payment.WebhookSecret,
		Clock:         clock.NewSystem(),
		Log:           zaplog,
		CORSOrigins:   cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	zaplog.Info("api listening", zap.String("port", cfg.Port))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zaplog.Error("server error", zap.Error(err))
		}
	case <-stopCtx.Done():
		zaplog.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zaplog.Error("server shutdown error", zap.Error(err))
	}
	zaplog.Info("server stopped")

	return nil
}
