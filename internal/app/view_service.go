package app

import (
	"context"
	"slices"

	"github.com/cimillas/taycan-raffle/internal/domain"
)

type ViewRepository interface {
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error)
}

// BuyerView is the per-buyer projection of the order ledger. Failed orders
// contribute no numbers and no spend, but stay in the order count for audit
// visibility.
type BuyerView struct {
	ConfirmedNumbers []int
	PendingNumbers   []int
	TotalSpentCents  int64
	OrderCount       int
}

type ViewService struct {
	repo ViewRepository
}

func NewViewService(repo ViewRepository) *ViewService {
	return &ViewService{repo: repo}
}

func (s *ViewService) ViewFor(ctx context.Context, buyerID string) (BuyerView, error) {
	orders, err := s.repo.ListOrdersByBuyer(ctx, buyerID)
	if err != nil {
		return BuyerView{}, err
	}

	view := BuyerView{
		ConfirmedNumbers: []int{},
		PendingNumbers:   []int{},
	}
	for _, order := range orders {
		view.OrderCount++
		switch order.Status {
		case domain.OrderStatusPaid:
			view.ConfirmedNumbers = append(view.ConfirmedNumbers, order.Numbers...)
			view.TotalSpentCents += order.AmountCents
		case domain.OrderStatusPending:
			view.PendingNumbers = append(view.PendingNumbers, order.Numbers...)
		}
	}

	slices.Sort(view.ConfirmedNumbers)
	slices.Sort(view.PendingNumbers)

	return view, nil
}
