package billingdto

import (
	"time"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/shopspring/decimal"
)

type CheckoutInput struct {
	PaymentMethod   string
	LineItems       []domain.LineItem
	Buyer           domain.Buyer
	DeliveryAddress string
	// ClientAmount is what the storefront displayed. It is logged when it
	// disagrees with the computed amount and otherwise ignored.
	ClientAmount *decimal.Decimal
}

type TopUpInput struct {
	UserID string
	Email  string
	Amount decimal.Decimal
}

type TransferInput struct {
	SenderID   string
	ReceiverID string
	Amount     decimal.Decimal
}

type RefundInput struct {
	OrderID string
	// Amount nil refunds the whole captured amount.
	Amount *decimal.Decimal
}

type ListOrdersInput struct {
	Filter     domain.OrderFilter
	Pagination domain.Pagination
}

type ListTransactionsInput struct {
	Filter     domain.TransactionFilter
	Pagination domain.Pagination
}

type ReconcileInput struct {
	OlderThan time.Duration
	Limit     int
}

type ListCheckoutFailuresInput struct {
	Filter     domain.UncreatedOrdersFilter
	Pagination domain.Pagination
}
