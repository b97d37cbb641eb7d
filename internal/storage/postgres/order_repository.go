package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cimillas/taycan-raffle/internal/domain"
)

// OrderRepository persists orders and their number claims. Claims carry the
// unique constraint that makes concurrent allocations collision-free; they
// exist only while an order is live (pending or paid).
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *OrderRepository) CountClaims(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM number_claims`

	var total int
	if err := r.queryRow(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("count claims: %w", err)
	}
	return total, nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (id, buyer_id, quantity, numbers, amount_cents, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.exec(ctx, stmt,
		order.ID,
		order.BuyerID,
		order.Quantity,
		toInt32Slice(order.Numbers),
		order.AmountCents,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) ClaimNumbers(ctx context.Context, orderID string, numbers []int) error {
	const stmt = `
INSERT INTO number_claims (number, order_id)
SELECT unnest($1::int[]), $2`

	_, err := r.exec(ctx, stmt, toInt32Slice(numbers), orderID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrNumberTaken
		}
		return fmt.Errorf("claim numbers: %w", err)
	}
	return nil
}

func (r *OrderRepository) AttachPaymentSession(ctx context.Context, orderID, sessionRef string, at time.Time) error {
	const stmt = `
UPDATE orders
SET payment_session_ref = $2, updated_at = $3
WHERE id = $1 AND payment_session_ref IS NULL`

	tag, err := r.exec(ctx, stmt, orderID, sessionRef, at)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSessionRefTaken
		}
		return fmt.Errorf("attach payment session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) GetOrderBySessionForUpdate(ctx context.Context, sessionRef string) (domain.Order, error) {
	const query = `
SELECT id, buyer_id, quantity, numbers, amount_cents, payment_session_ref, status, created_at, updated_at
FROM orders
WHERE payment_session_ref = $1
FOR UPDATE`

	return r.scanOrder(r.queryRow(ctx, query, sessionRef))
}

func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, at time.Time) error {
	const stmt = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, orderID, status, at)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// FailPendingOrder marks an order failed only while it is still pending and
// reports whether the transition happened. A false return means payment
// reconciliation settled the order first; its claims must stay held.
func (r *OrderRepository) FailPendingOrder(ctx context.Context, orderID string, at time.Time) (bool, error) {
	const stmt = `
UPDATE orders
SET status = 'failed', updated_at = $2
WHERE id = $1 AND status = 'pending'`

	tag, err := r.exec(ctx, stmt, orderID, at)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("fail pending order: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *OrderRepository) ReleaseClaims(ctx context.Context, orderID string) error {
	const stmt = `DELETE FROM number_claims WHERE order_id = $1`

	if _, err := r.exec(ctx, stmt, orderID); err != nil {
		return fmt.Errorf("release claims: %w", err)
	}
	return nil
}

func (r *OrderRepository) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	const query = `
SELECT id, buyer_id, quantity, numbers, amount_cents, payment_session_ref, status, created_at, updated_at
FROM orders
WHERE buyer_id = $1
ORDER BY created_at`

	rows, err := r.query(ctx, query, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var numbers []int32
	var sessionRef *string
	var status string
	err := row.Scan(
		&o.ID,
		&o.BuyerID,
		&o.Quantity,
		&numbers,
		&o.AmountCents,
		&sessionRef,
		&status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		return domain.Order{}, fmt.Errorf("scan order: %w", err)
	}
	o.Numbers = toIntSlice(numbers)
	if sessionRef != nil {
		o.PaymentSessionRef = *sessionRef
	}
	o.Status = domain.OrderStatus(status)
	return o, nil
}

func toInt32Slice(numbers []int) []int32 {
	out := make([]int32, len(numbers))
	for i, n := range numbers {
		out[i] = int32(n)
	}
	return out
}

func toIntSlice(numbers []int32) []int {
	out := make([]int, len(numbers))
	for i, n := range numbers {
		out[i] = int(n)
	}
	return out
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
