package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type Pagination struct {
	Page  int
	Limit int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// LedgerRepository is the durable store for orders, transactions, wallets
// and products. Reads run outside a unit of work; every read-validate-write
// sequence on stock or balance runs inside WithinTx.
type LedgerRepository interface {
	WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error

	GetProductsByIDs(ctx context.Context, ids []string) ([]*Product, error)
	GetOrderByID(ctx context.Context, orderID string) (*Order, error)
	FindOrderByPaymentIntentID(ctx context.Context, intentID string) (*Order, error)
	GetTransactionByID(ctx context.Context, txID string) (*Transaction, error)
	FindTransactionByReference(ctx context.Context, reference string) (*Transaction, error)
	FindTransactionByOrderID(ctx context.Context, orderID string) (*Transaction, error)
	GetWalletByUserID(ctx context.Context, userID string) (*Wallet, error)
	ListOrders(ctx context.Context, filter OrderFilter, page Pagination) ([]*Order, int64, error)
	ListTransactions(ctx context.Context, filter TransactionFilter, page Pagination) ([]*Transaction, int64, error)
	UpdateOrderTracker(ctx context.Context, orderID string, update TrackerUpdate) (*Order, error)
}

// LedgerTx is one unit of work. Lock* methods take row locks held until
// the surrounding WithinTx returns.
type LedgerTx interface {
	LockProducts(ids []string) ([]*Product, error)
	LockWalletByUserID(userID string) (*Wallet, error)
	LockTransaction(txID string) (*Transaction, error)
	GetOrderByID(orderID string) (*Order, error)
	// RefundedAmount sums the reverse transactions recorded for an order.
	RefundedAmount(orderID string) (decimal.Decimal, error)

	CreateOrder(order *Order) error
	UpdateOrderPayment(orderID string, status OrderStatus, reference string) error
	CreateTransaction(t *Transaction) error
	UpdateTransactionStatus(txID string, status TransactionStatus) error
	UpdateWalletBalance(walletID string, balance decimal.Decimal) error
	UpdateProductStock(productID string, quantity int, outOfStock bool) error
}
