package app

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cimillas/taycan-raffle/internal/clock"
	"github.com/cimillas/taycan-raffle/internal/domain"
	"github.com/cimillas/taycan-raffle/internal/payment"
	"github.com/cimillas/taycan-raffle/internal/pricing"
)

type CheckoutRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CountClaims(ctx context.Context) (int, error)
	CreateOrder(ctx context.Context, order domain.Order) error
	ClaimNumbers(ctx context.Context, orderID string, numbers []int) error
	AttachPaymentSession(ctx context.Context, orderID, sessionRef string, at time.Time) error
	FailPendingOrder(ctx context.Context, orderID string, at time.Time) (bool, error)
	ReleaseClaims(ctx context.Context, orderID string) error
}

const (
	defaultTotalSupply        = 1_000_000
	defaultAllocationAttempts = 5
	currency                  = "brl"
	releaseTimeout            = 5 * time.Second
)

// CheckoutService sells raffle entries: it prices a request, allocates
// collision-free numbers, records the pending order, and hands the buyer a
// hosted payment session.
type CheckoutService struct {
	repo        CheckoutRepository
	sessions    payment.SessionCreator
	clock       clock.Clock
	log         *zap.Logger
	tariff      pricing.Tariff
	totalSupply int
	maxAttempts int
	successURL  string
	cancelURL   string
	intN        func(n int) int
}

type CheckoutServiceOption func(*CheckoutService)

func WithTariff(t pricing.Tariff) CheckoutServiceOption {
	return func(s *CheckoutService) {
		s.tariff = t
	}
}

// WithTotalSupply overrides the size of the number space [0, n). Values
// outside (0, math.MaxInt32] are ignored: numbers are stored as int4.
func WithTotalSupply(n int) CheckoutServiceOption {
	return func(s *CheckoutService) {
		if n > 0 && n <= math.MaxInt32 {
			s.totalSupply = n
		}
	}
}

// WithAllocationAttempts bounds the collision retry budget.
func WithAllocationAttempts(n int) CheckoutServiceOption {
	return func(s *CheckoutService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithRedirectURLs sets where the hosted session sends the buyer afterwards.
func WithRedirectURLs(successURL, cancelURL string) CheckoutServiceOption {
	return func(s *CheckoutService) {
		s.successURL = successURL
		s.cancelURL = cancelURL
	}
}

// WithIntN replaces the random source, for deterministic tests.
func WithIntN(intN func(n int) int) CheckoutServiceOption {
	return func(s *CheckoutService) {
		s.intN = intN
	}
}

func NewCheckoutService(repo CheckoutRepository, sessions payment.SessionCreator, clk clock.Clock, log *zap.Logger, opts ...CheckoutServiceOption) *CheckoutService {
	svc := &CheckoutService{
		repo:        repo,
		sessions:    sessions,
		clock:       clk,
		log:         log,
		tariff:      pricing.DefaultTariff(),
		totalSupply: defaultTotalSupply,
		maxAttempts: defaultAllocationAttempts,
		intN:        rand.Intn,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Checkout validates the request, allocates numbers and persists the pending
// order in one transaction, then creates the hosted payment session and
// attaches its reference. No redirect URL is ever returned without a durable
// order behind it. If the session or the attach step fails, the allocated
// numbers are released before the error is surfaced.
func (s *CheckoutService) Checkout(ctx context.Context, buyerID string, quantity int) (string, error) {
	if buyerID == "" {
		return "", domain.ErrUnauthorized
	}

	quote, err := s.tariff.Quote(quantity)
	if err != nil {
		return "", err
	}

	order, err := s.allocate(ctx, buyerID, quantity, quote)
	if err != nil {
		return "", err
	}

	attached := false
	defer func() {
		if !attached {
			s.release(ctx, order.ID)
		}
	}()

	session, err := s.sessions.CreateSession(ctx, payment.CreateSessionInput{
		AmountCents: order.AmountCents,
		Currency:    currency,
		Quantity:    order.Quantity,
		BuyerID:     order.BuyerID,
		OrderID:     order.ID,
		Numbers:     order.Numbers,
		SuccessURL:  s.successURL,
		CancelURL:   s.cancelURL,
	})
	if err != nil {
		return "", err
	}

	if err := s.repo.AttachPaymentSession(ctx, order.ID, session.ID, s.clock.Now()); err != nil {
		return "", err
	}
	attached = true

	return session.URL, nil
}

// allocate draws a candidate number set and inserts the order together with
// its claims in a single transaction. The unique constraint on live claims is
// the collision detector; on conflict the whole transaction is retried with a
// fresh draw.
func (s *CheckoutService) allocate(ctx context.Context, buyerID string, quantity int, quote pricing.Quote) (domain.Order, error) {
	if quantity > s.totalSupply {
		return domain.Order{}, domain.ErrSupplyExhausted
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		now := s.clock.Now()
		order := domain.Order{
			ID:          uuid.NewString(),
			BuyerID:     buyerID,
			Quantity:    quantity,
			Numbers:     s.drawNumbers(quantity),
			AmountCents: quote.TotalCents,
			Status:      domain.OrderStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
			claimed, err := s.repo.CountClaims(txCtx)
			if err != nil {
				return err
			}
			if s.totalSupply-claimed < quantity {
				return domain.ErrSupplyExhausted
			}
			if err := s.repo.CreateOrder(txCtx, order); err != nil {
				return err
			}
			return s.repo.ClaimNumbers(txCtx, order.ID, order.Numbers)
		})
		if err == nil {
			return order, nil
		}
		if errors.Is(err, domain.ErrNumberTaken) {
			s.log.Debug("number claim conflict, redrawing",
				zap.String("order_id", order.ID),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		return domain.Order{}, err
	}

	// The in-transaction count is read-committed, so concurrent commits can
	// drain the pool between attempts. Re-read it before reporting so a
	// drained pool is not misfiled as contention.
	if claimed, err := s.repo.CountClaims(ctx); err == nil && s.totalSupply-claimed < quantity {
		return domain.Order{}, domain.ErrSupplyExhausted
	}
	return domain.Order{}, domain.ErrAllocationExhausted
}

// drawNumbers picks a distinct random candidate set. Candidates are sorted so
// concurrent claim transactions always insert in the same order.
func (s *CheckoutService) drawNumbers(quantity int) []int {
	drawn := make(map[int]struct{}, quantity)
	numbers := make([]int, 0, quantity)
	for len(numbers) < quantity {
		n := s.intN(s.totalSupply)
		if _, ok := drawn[n]; ok {
			continue
		}
		drawn[n] = struct{}{}
		numbers = append(numbers, n)
	}
	slices.Sort(numbers)
	return numbers
}

// release is the compensating action for a checkout that allocated numbers
// but could not finish: the order is marked failed and its claims are freed.
// It must run even when the caller's context is already cancelled. The
// transition is conditional on pending: an attach reported as failed may
// still have landed server-side, and a completed payment reconciled in the
// meantime must keep both its paid status and its claims.
func (s *CheckoutService) release(ctx context.Context, orderID string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	released := false
	err := s.repo.WithTx(rctx, func(txCtx context.Context) error {
		failed, err := s.repo.FailPendingOrder(txCtx, orderID, s.clock.Now())
		if err != nil {
			return err
		}
		if !failed {
			return nil
		}
		released = true
		return s.repo.ReleaseClaims(txCtx, orderID)
	})
	if err != nil {
		s.log.Error("release allocated numbers", zap.String("order_id", orderID), zap.Error(err))
		return
	}
	if !released {
		s.log.Warn("order settled before release, claims kept", zap.String("order_id", orderID))
		return
	}
	s.log.Info("released allocated numbers after failed checkout", zap.String("order_id", orderID))
}
