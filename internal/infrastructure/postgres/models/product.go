package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductModel struct {
	ID             string          `gorm:"primaryKey;type:uuid"`
	Name           string          `gorm:"not null"`
	Price          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Quantity       int             `gorm:"not null;default:0"`
	IsOutOfStock   bool            `gorm:"not null;default:false"`
	HasBeenDeleted bool            `gorm:"not null;default:false;index:idx_products_deleted"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (ProductModel) TableName() string {
	return "products"
}
