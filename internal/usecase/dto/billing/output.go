package billingdto

import (
	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/shopspring/decimal"
)

type CheckoutOutput struct {
	Order       *domain.Order
	Transaction *domain.Transaction

	// card-intent
	PaymentIntentID string
	ClientSecret    string

	// redirect-gateway
	AuthorizationURL string
	Reference        string
}

type VerifyOutput struct {
	OrderID     string
	Reference   string
	Status      domain.TransactionStatus
	OrderStatus domain.OrderStatus
	// AlreadyProcessed is set when the transaction had left pending before
	// this call, so no side effects ran.
	AlreadyProcessed bool
	// GatewayStatus is what the provider reported, empty when it was not asked.
	GatewayStatus domain.GatewayStatus
}

type TopUpOutput struct {
	AuthorizationURL string
	Reference        string
	Transaction      *domain.Transaction
}

type TopUpVerifyOutput struct {
	Reference        string
	Status           domain.TransactionStatus
	Balance          decimal.Decimal
	AlreadyProcessed bool
	GatewayStatus    domain.GatewayStatus
}

type TransferOutput struct {
	Reference     string
	Debit         *domain.Transaction
	Credit        *domain.Transaction
	SenderBalance decimal.Decimal
}

type RefundOutput struct {
	Refund      *domain.Refund
	Transaction *domain.Transaction
}

type ListOrdersOutput struct {
	Orders     []*domain.Order
	Total      int64
	Pagination domain.Pagination
}

type ListTransactionsOutput struct {
	Transactions []*domain.Transaction
	Total        int64
	Pagination   domain.Pagination
}

type ReconcileOutput struct {
	Checked      int
	Settled      int
	StillPending int
	Failed       int
	Errors       int
}

type ListCheckoutFailuresOutput struct {
	Failures   []*domain.UncreatedOrder
	Total      int64
	Pagination domain.Pagination
}
