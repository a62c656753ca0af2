package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionModel struct {
	ID            string          `gorm:"primaryKey;type:uuid"`
	OrderID       *string         `gorm:"type:uuid;index:idx_transactions_order_id"`
	PaymentMethod string          `gorm:"not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status        string          `gorm:"not null;index:idx_transactions_status_created"`
	Reference     string          `gorm:"index:idx_transactions_reference"`
	UserID        string          `gorm:"index:idx_transactions_user_id"`
	AlertType     string          `gorm:"not null;default:''"`
	CreatedAt     time.Time       `gorm:"index:idx_transactions_status_created"`
	UpdatedAt     time.Time
}

func (TransactionModel) TableName() string {
	return "transactions"
}
