package pricing

import "github.com/cimillas/taycan-raffle/internal/domain"

// Tariff holds the purchase bounds and the tiered unit prices, in the
// smallest currency unit.
type Tariff struct {
	MinPurchase       int
	MaxPurchase       int
	TierThreshold     int
	StandardUnitCents int64
	DiscountUnitCents int64
}

// DefaultTariff matches the raffle launch pricing: R$0.10 per entry, R$0.05
// from 1000 entries up, purchases between 100 and 10000 entries.
func DefaultTariff() Tariff {
	return Tariff{
		MinPurchase:       100,
		MaxPurchase:       10000,
		TierThreshold:     1000,
		StandardUnitCents: 10,
		DiscountUnitCents: 5,
	}
}

type Quote struct {
	UnitCents  int64
	TotalCents int64
}

// Quote prices a purchase of the given quantity. It is pure: the returned
// total is fully determined by quantity and the tariff.
func (t Tariff) Quote(quantity int) (Quote, error) {
	if quantity < t.MinPurchase || quantity > t.MaxPurchase {
		return Quote{}, domain.ErrInvalidQuantity
	}

	unit := t.StandardUnitCents
	if quantity >= t.TierThreshold {
		unit = t.DiscountUnitCents
	}

	return Quote{
		UnitCents:  unit,
		TotalCents: int64(quantity) * unit,
	}, nil
}
