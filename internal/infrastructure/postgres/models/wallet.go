package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type WalletModel struct {
	ID        string          `gorm:"primaryKey;type:uuid"`
	UserID    string          `gorm:"not null;uniqueIndex:idx_wallets_user_id"`
	Balance   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (WalletModel) TableName() string {
	return "wallets"
}
