package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cimillas/taycan-raffle/internal/clock"
	"github.com/cimillas/taycan-raffle/internal/domain"
	"github.com/cimillas/taycan-raffle/internal/payment"
)

type ReconcileRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetOrderBySessionForUpdate(ctx context.Context, sessionRef string) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, at time.Time) error
	ReleaseClaims(ctx context.Context, orderID string) error
}

// ReconcileService applies payment provider session events to the order
// ledger. Delivery is at-least-once and unordered, so every transition is
// idempotent keyed on the session ref, and terminal states are never left.
type ReconcileService struct {
	repo  ReconcileRepository
	clock clock.Clock
	log   *zap.Logger
}

func NewReconcileService(repo ReconcileRepository, clk clock.Clock, log *zap.Logger) *ReconcileService {
	return &ReconcileService{
		repo:  repo,
		clock: clk,
		log:   log,
	}
}

// Apply advances the order referenced by the event. A domain.ErrOrderNotFound
// return means the order commit may not be visible yet; the caller should
// answer with a retryable failure so the provider redelivers.
func (s *ReconcileService) Apply(ctx context.Context, ev payment.Event) error {
	switch ev.Type {
	case payment.EventSessionCompleted:
		return s.applyCompleted(ctx, ev.SessionID)
	case payment.EventSessionExpired:
		return s.applyExpired(ctx, ev.SessionID)
	default:
		s.log.Debug("ignoring unhandled event type", zap.String("type", ev.Type))
		return nil
	}
}

func (s *ReconcileService) applyCompleted(ctx context.Context, sessionRef string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderBySessionForUpdate(txCtx, sessionRef)
		if err != nil {
			return err
		}

		switch order.Status {
		case domain.OrderStatusPending:
			return s.repo.UpdateOrderStatus(txCtx, order.ID, domain.OrderStatusPaid, s.clock.Now())
		case domain.OrderStatusPaid:
			// Duplicate delivery; already settled.
			return nil
		case domain.OrderStatusFailed:
			// A completed payment for an expired order needs a human: do not
			// resurrect it here.
			s.log.Warn("completed payment for failed order, manual reconciliation required",
				zap.String("order_id", order.ID),
				zap.String("session_ref", sessionRef),
			)
			return nil
		default:
			return nil
		}
	})
}

func (s *ReconcileService) applyExpired(ctx context.Context, sessionRef string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderBySessionForUpdate(txCtx, sessionRef)
		if err != nil {
			return err
		}

		if order.Status != domain.OrderStatusPending {
			return nil
		}

		if err := s.repo.UpdateOrderStatus(txCtx, order.ID, domain.OrderStatusFailed, s.clock.Now()); err != nil {
			return err
		}
		return s.repo.ReleaseClaims(txCtx, order.ID)
	})
}
