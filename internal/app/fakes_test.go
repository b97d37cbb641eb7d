package app

import (
	"context"
	"maps"
	"time"

	"github.com/cimillas/taycan-raffle/internal/domain"
)

// fakeOrderRepo is an in-memory stand-in for the postgres repository. WithTx
// snapshots state and rolls it back when the callback errors, mirroring the
// transactional behaviour the services rely on.
type fakeOrderRepo struct {
	orders map[string]domain.Order
	claims map[int]string // number -> order id

	claimErrs   []error // popped per ClaimNumbers call before conflict checks
	counts      []int   // popped per CountClaims call, overriding the live count
	countErr    error
	attachErr   error   // returned after the ref is applied, like a lost ack
	afterAttach func()  // runs between applying the ref and returning attachErr
	claimCalls  int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[string]domain.Order),
		claims: make(map[int]string),
	}
}

func (f *fakeOrderRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ordersSnap := maps.Clone(f.orders)
	claimsSnap := maps.Clone(f.claims)
	if err := fn(ctx); err != nil {
		f.orders = ordersSnap
		f.claims = claimsSnap
		return err
	}
	return nil
}

func (f *fakeOrderRepo) CountClaims(_ context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	if len(f.counts) > 0 {
		n := f.counts[0]
		f.counts = f.counts[1:]
		return n, nil
	}
	return len(f.claims), nil
}

func (f *fakeOrderRepo) CreateOrder(_ context.Context, order domain.Order) error {
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) ClaimNumbers(_ context.Context, orderID string, numbers []int) error {
	f.claimCalls++
	if len(f.claimErrs) > 0 {
		err := f.claimErrs[0]
		f.claimErrs = f.claimErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, n := range numbers {
		if _, taken := f.claims[n]; taken {
			return domain.ErrNumberTaken
		}
	}
	for _, n := range numbers {
		f.claims[n] = orderID
	}
	return nil
}

func (f *fakeOrderRepo) AttachPaymentSession(_ context.Context, orderID, sessionRef string, at time.Time) error {
	order, ok := f.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.PaymentSessionRef = sessionRef
	order.UpdatedAt = at
	f.orders[orderID] = order
	if f.afterAttach != nil {
		f.afterAttach()
	}
	return f.attachErr
}

func (f *fakeOrderRepo) UpdateOrderStatus(_ context.Context, orderID string, status domain.OrderStatus, at time.Time) error {
	order, ok := f.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Status = status
	order.UpdatedAt = at
	f.orders[orderID] = order
	return nil
}

func (f *fakeOrderRepo) FailPendingOrder(_ context.Context, orderID string, at time.Time) (bool, error) {
	order, ok := f.orders[orderID]
	if !ok || order.Status != domain.OrderStatusPending {
		return false, nil
	}
	order.Status = domain.OrderStatusFailed
	order.UpdatedAt = at
	f.orders[orderID] = order
	return true, nil
}

func (f *fakeOrderRepo) ReleaseClaims(_ context.Context, orderID string) error {
	for n, owner := range f.claims {
		if owner == orderID {
			delete(f.claims, n)
		}
	}
	return nil
}

func (f *fakeOrderRepo) GetOrderBySessionForUpdate(_ context.Context, sessionRef string) (domain.Order, error) {
	for _, order := range f.orders {
		if order.PaymentSessionRef == sessionRef && sessionRef != "" {
			return order, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (f *fakeOrderRepo) ListOrdersByBuyer(_ context.Context, buyerID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, order := range f.orders {
		if order.BuyerID == buyerID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) singleOrder() domain.Order {
	for _, order := range f.orders {
		return order
	}
	return domain.Order{}
}
