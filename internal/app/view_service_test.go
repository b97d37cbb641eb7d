package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimillas/taycan-raffle/internal/domain"
)

func TestViewService_ViewFor(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	addOrder := func(repo *fakeOrderRepo, id, buyerID string, status domain.OrderStatus, numbers []int, amount int64) {
		repo.orders[id] = domain.Order{
			ID:          id,
			BuyerID:     buyerID,
			Quantity:    len(numbers),
			Numbers:     numbers,
			AmountCents: amount,
			Status:      status,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	t.Run("projects confirmed and pending numbers sorted", func(t *testing.T) {
		repo := newFakeOrderRepo()
		addOrder(repo, "o1", "buyer-1", domain.OrderStatusPaid, []int{42, 7}, 20)
		addOrder(repo, "o2", "buyer-1", domain.OrderStatusPaid, []int{13}, 10)
		addOrder(repo, "o3", "buyer-1", domain.OrderStatusPending, []int{99, 3}, 20)
		addOrder(repo, "o4", "buyer-1", domain.OrderStatusFailed, []int{55}, 10)
		addOrder(repo, "o5", "buyer-2", domain.OrderStatusPaid, []int{1}, 10)

		view, err := NewViewService(repo).ViewFor(context.Background(), "buyer-1")
		require.NoError(t, err)

		assert.Equal(t, []int{7, 13, 42}, view.ConfirmedNumbers)
		assert.Equal(t, []int{3, 99}, view.PendingNumbers)
		assert.Equal(t, int64(30), view.TotalSpentCents, "only paid orders count as spent")
		assert.Equal(t, 4, view.OrderCount, "failed orders stay visible in the count")
	})

	t.Run("buyer with no orders gets empty view", func(t *testing.T) {
		repo := newFakeOrderRepo()

		view, err := NewViewService(repo).ViewFor(context.Background(), "buyer-1")
		require.NoError(t, err)

		assert.NotNil(t, view.ConfirmedNumbers)
		assert.NotNil(t, view.PendingNumbers)
		assert.Empty(t, view.ConfirmedNumbers)
		assert.Empty(t, view.PendingNumbers)
		assert.Zero(t, view.TotalSpentCents)
		assert.Zero(t, view.OrderCount)
	})
}
