package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// UncreatedOrder records a checkout attempt that failed before an order
// could be billed, for operator follow-up.
type UncreatedOrder struct {
	ID            string
	UserID        string
	Email         string
	PaymentMethod PaymentMethod
	Amount        decimal.Decimal
	ProductIDs    []string
	ErrorMessage  string
	CreatedAt     time.Time
}

type UncreatedOrdersFilter struct {
	UserID           *string
	Email            *string
	PaymentMethod    *PaymentMethod
	TimeOpeningStart *time.Time
	TimeOpeningEnd   *time.Time
}

type UncreatedOrderRepository interface {
	CreateLog(ctx context.Context, log *UncreatedOrder) error
	GetLogsWithFilters(ctx context.Context, filter *UncreatedOrdersFilter, page Pagination) ([]*UncreatedOrder, int64, error)
}
