package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderModel struct {
	ID              string `gorm:"primaryKey;type:uuid"`
	UserID          string `gorm:"index:idx_orders_user_id"`
	FirstName       string
	LastName        string
	Email           string `gorm:"index:idx_orders_email"`
	Phone           string
	TownOrCity      string
	PostCode        string
	State           string
	Country         string
	DeliveryAddress string
	Amount          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Reference       string          `gorm:"index:idx_orders_reference"`
	PaymentIntentID string          `gorm:"index:idx_orders_payment_intent_id"`
	Status          string          `gorm:"not null;index:idx_orders_status"`
	IsDelivered     bool            `gorm:"not null;default:false"`
	DeliveryNote    string
	Products        []OrderProductModel `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt       time.Time           `gorm:"index:idx_orders_created_at"`
	UpdatedAt       time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderProductModel is written once with its order and never updated.
type OrderProductModel struct {
	ID          string          `gorm:"primaryKey;type:uuid"`
	OrderID     string          `gorm:"type:uuid;not null;index:idx_order_products_order_id"`
	ProductID   string          `gorm:"type:uuid;not null"`
	ProductName string
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

func (OrderProductModel) TableName() string {
	return "order_products"
}
