package repository

import (
	"fmt"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/postgres/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ledgerTx wraps the *gorm.DB handed out by Transaction. Row locks taken
// here are released on commit or rollback.
type ledgerTx struct {
	db *gorm.DB
}

func (t *ledgerTx) forUpdate() *gorm.DB {
	return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// LockProducts locks rows in id order so concurrent checkouts never wait
// on each other in a cycle.
func (t *ledgerTx) LockProducts(ids []string) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var productModels []models.ProductModel
	if err := t.forUpdate().Where("id IN ?", ids).Order("id").Find(&productModels).Error; err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	products := make([]*domain.Product, len(productModels))
	for i := range productModels {
		products[i] = mappers.ToDomainProduct(&productModels[i])
	}
	return products, nil
}

func (t *ledgerTx) LockWalletByUserID(userID string) (*domain.Wallet, error) {
	var model models.WalletModel
	if err := t.forUpdate().First(&model, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err, domain.ErrWalletNotFound)
	}
	return mappers.ToDomainWallet(&model), nil
}

func (t *ledgerTx) LockTransaction(txID string) (*domain.Transaction, error) {
	var model models.TransactionModel
	if err := t.forUpdate().First(&model, "id = ?", txID).Error; err != nil {
		return nil, notFound(err, domain.ErrTransactionNotFound)
	}
	return mappers.ToDomainTransaction(&model), nil
}

func (t *ledgerTx) GetOrderByID(orderID string) (*domain.Order, error) {
	return getOrder(t.db, "id = ?", orderID)
}

func (t *ledgerTx) RefundedAmount(orderID string) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := t.db.Model(&models.TransactionModel{}).
		Where("order_id = ? AND alert_type = ?", orderID, string(domain.AlertReverse)).
		Pluck("amount", &amounts).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum refunds: %w", err)
	}
	return decimal.Sum(decimal.Zero, amounts...), nil
}

func (t *ledgerTx) CreateOrder(order *domain.Order) error {
	if err := t.db.Create(mappers.ToGORMOrder(order)).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (t *ledgerTx) UpdateOrderPayment(orderID string, status domain.OrderStatus, reference string) error {
	res := t.db.Model(&models.OrderModel{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"status":    string(status),
			"reference": reference,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update order payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (t *ledgerTx) CreateTransaction(tx *domain.Transaction) error {
	if err := t.db.Create(mappers.ToGORMTransaction(tx)).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (t *ledgerTx) UpdateTransactionStatus(txID string, status domain.TransactionStatus) error {
	res := t.db.Model(&models.TransactionModel{}).
		Where("id = ?", txID).
		Update("status", string(status))
	if res.Error != nil {
		return fmt.Errorf("failed to update transaction status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (t *ledgerTx) UpdateWalletBalance(walletID string, balance decimal.Decimal) error {
	res := t.db.Model(&models.WalletModel{}).
		Where("id = ?", walletID).
		Update("balance", balance)
	if res.Error != nil {
		return fmt.Errorf("failed to update wallet balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrWalletNotFound
	}
	return nil
}

func (t *ledgerTx) UpdateProductStock(productID string, quantity int, outOfStock bool) error {
	res := t.db.Model(&models.ProductModel{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"quantity":        quantity,
			"is_out_of_stock": outOfStock,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update product stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
