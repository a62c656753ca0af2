package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type UncreatedOrderModel struct {
	ID            string `gorm:"primaryKey;type:uuid"`
	UserID        string `gorm:"index:idx_user_id_uncreated"`
	Email         string `gorm:"index:idx_email_uncreated"`
	PaymentMethod string
	Amount        decimal.Decimal `gorm:"type:numeric(12,2)"`
	// ProductIDs is a comma separated list.
	ProductIDs   string
	ErrorMessage string
	CreatedAt    time.Time `gorm:"index:idx_created_at_uncreated"`
}

func (UncreatedOrderModel) TableName() string {
	return "uncreated_orders"
}
