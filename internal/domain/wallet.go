package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Wallet struct {
	ID        string
	UserID    string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanDebit mirrors the checkout rule: an empty wallet never pays, and the
// balance must cover the whole amount.
func (w *Wallet) CanDebit(amount decimal.Decimal) bool {
	return w.Balance.IsPositive() && w.Balance.GreaterThanOrEqual(amount)
}
