package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID             string
	Name           string
	Price          decimal.Decimal
	Quantity       int
	IsOutOfStock   bool
	HasBeenDeleted bool
}

// Available reports how many units can be sold right now.
func (p *Product) Available() int {
	if p.HasBeenDeleted || p.IsOutOfStock || p.Quantity < 0 {
		return 0
	}
	return p.Quantity
}

// Decrement removes qty units from stock. Stock is clamped at zero and
// the returned shortfall is the number of units that could not be covered.
func (p *Product) Decrement(qty int) (shortfall int) {
	if qty > p.Quantity {
		shortfall = qty - p.Quantity
		p.Quantity = 0
	} else {
		p.Quantity -= qty
	}
	p.IsOutOfStock = p.Quantity == 0
	return shortfall
}
