package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

// Terminal reports whether no transition may leave the status.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed
}

// Order represents one purchase attempt with its allocated raffle numbers.
// Numbers are assigned once at creation and never mutated; only Status and
// UpdatedAt change afterwards, driven by payment reconciliation.
type Order struct {
	ID       string
	BuyerID  string
	Quantity int
	Numbers  []int
	// AmountCents is the total price in the smallest currency unit, fixed at
	// creation from the tariff in force.
	AmountCents int64
	// PaymentSessionRef is the hosted checkout session id, attached once the
	// session exists. It is the idempotency key for reconciliation.
	PaymentSessionRef string
	Status            OrderStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
