package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "pending"
	OrderStatusPaid             OrderStatus = "paid"
	OrderStatusAwaitingTransfer OrderStatus = "awaiting-transfer"
	OrderStatusAbandoned        OrderStatus = "abandoned"
)

// Buyer is the contact snapshot copied onto an order at checkout.
type Buyer struct {
	UserID     string
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	TownOrCity string
	PostCode   string
	State      string
	Country    string
}

func (b Buyer) FullName() string {
	switch {
	case b.FirstName == "":
		return b.LastName
	case b.LastName == "":
		return b.FirstName
	}
	return b.FirstName + " " + b.LastName
}

type LineItem struct {
	ProductID string
	Quantity  int
}

// OrderProduct is an immutable line item. UnitPrice and ProductName are
// captured at checkout so later catalog edits do not rewrite history.
type OrderProduct struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

func (p OrderProduct) Subtotal() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

type Order struct {
	ID              string
	Buyer           Buyer
	DeliveryAddress string
	Amount          decimal.Decimal
	Reference       string
	PaymentIntentID string
	Status          OrderStatus
	IsDelivered     bool
	DeliveryNote    string
	Products        []OrderProduct
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderFilter struct {
	Status      OrderStatus
	Email       string
	UserID      string
	IsDelivered *bool
	CreatedFrom time.Time
	CreatedTo   time.Time
}

// TrackerUpdate carries the fulfillment fields staff may change after payment.
type TrackerUpdate struct {
	IsDelivered  *bool
	DeliveryNote *string
}
