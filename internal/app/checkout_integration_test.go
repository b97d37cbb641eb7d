package app

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/cimillas/taycan-raffle/internal/clock"
	"github.com/cimillas/taycan-raffle/internal/pricing"
	"github.com/cimillas/taycan-raffle/internal/storage/postgres"
	"github.com/cimillas/taycan-raffle/internal/testutil"
)

// Verifies global disjointness under real concurrency: parallel checkouts
// against Postgres must never be handed overlapping numbers.
func TestCheckoutService_ConcurrentAllocationsDisjoint(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewOrderRepository(pool)

	tariff := pricing.DefaultTariff()
	tariff.MinPurchase = 10

	const buyers = 8
	const perBuyer = 50

	svc := NewCheckoutService(repo, &fakeSessionCreator{}, clock.NewSystem(), zap.NewNop(),
		WithTariff(tariff),
		WithTotalSupply(10_000),
		WithAllocationAttempts(20),
	)

	var wg sync.WaitGroup
	errs := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.Checkout(ctx, fmt.Sprintf("buyer-%d", i), perBuyer); err != nil {
				errs <- fmt.Errorf("buyer %d: %w", i, err)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("checkout failed: %v", err)
	}

	var total, distinct int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*), COUNT(DISTINCT number) FROM number_claims`).Scan(&total, &distinct); err != nil {
		t.Fatalf("count claims: %v", err)
	}
	if total != buyers*perBuyer {
		t.Fatalf("expected %d claims, got %d", buyers*perBuyer, total)
	}
	if distinct != total {
		t.Fatalf("expected all claims distinct, got %d of %d", distinct, total)
	}

	var badOrders int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE cardinality(numbers) <> quantity`).Scan(&badOrders); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if badOrders != 0 {
		t.Fatalf("found %d orders whose numbers do not match quantity", badOrders)
	}
}
