package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type NotificationKind string

const (
	NotificationOrderConfirmation NotificationKind = "order-confirmation"
	NotificationOwnerAlert        NotificationKind = "order-owner-alert"
)

type SnapshotItem struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// OrderSnapshot is the fully hydrated order captured when a notification
// is enqueued. Delivery never re-reads the order.
type OrderSnapshot struct {
	OrderID           string
	Reference         string
	PaymentIntentID   string
	Buyer             Buyer
	DeliveryAddress   string
	Amount            decimal.Decimal
	OrderStatus       OrderStatus
	PaymentMethod     PaymentMethod
	TransactionStatus TransactionStatus
	Items             []SnapshotItem
	CreatedAt         time.Time
}

func NewOrderSnapshot(order *Order, tx *Transaction) OrderSnapshot {
	snap := OrderSnapshot{
		OrderID:         order.ID,
		Reference:       order.Reference,
		PaymentIntentID: order.PaymentIntentID,
		Buyer:           order.Buyer,
		DeliveryAddress: order.DeliveryAddress,
		Amount:          order.Amount,
		OrderStatus:     order.Status,
		CreatedAt:       order.CreatedAt,
		Items:           make([]SnapshotItem, 0, len(order.Products)),
	}
	if tx != nil {
		snap.PaymentMethod = tx.PaymentMethod
		snap.TransactionStatus = tx.Status
	}
	for _, p := range order.Products {
		snap.Items = append(snap.Items, SnapshotItem{
			ProductID: p.ProductID,
			Name:      p.ProductName,
			Quantity:  p.Quantity,
			UnitPrice: p.UnitPrice,
			Subtotal:  p.Subtotal(),
		})
	}
	return snap
}

type NotificationJob struct {
	ID            string
	Kind          NotificationKind
	Payload       OrderSnapshot
	Attempts      int
	NextAttemptAt time.Time
	CreatedAt     time.Time
}

// NotificationSender delivers rendered order notifications. Both calls
// must be safe to repeat: the queue retries without deduplication.
type NotificationSender interface {
	SendOrderConfirmation(ctx context.Context, order OrderSnapshot) error
	SendOwnerAlert(ctx context.Context, order OrderSnapshot) error
}
