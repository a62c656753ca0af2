package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultLedgerRepository struct {
	DB *gorm.DB
}

func NewDefaultLedgerRepository(db *gorm.DB) *DefaultLedgerRepository {
	return &DefaultLedgerRepository{DB: db}
}

// WithinTx runs fn in one database transaction. Returning an error from fn
// rolls back every write it made.
func (r *DefaultLedgerRepository) WithinTx(ctx context.Context, fn func(tx domain.LedgerTx) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerTx{db: tx})
	})
}

func (r *DefaultLedgerRepository) GetProductsByIDs(ctx context.Context, ids []string) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var productModels []models.ProductModel
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&productModels).Error; err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	products := make([]*domain.Product, len(productModels))
	for i := range productModels {
		products[i] = mappers.ToDomainProduct(&productModels[i])
	}
	return products, nil
}

func (r *DefaultLedgerRepository) GetTransactionByID(ctx context.Context, txID string) (*domain.Transaction, error) {
	var model models.TransactionModel
	if err := r.DB.WithContext(ctx).First(&model, "id = ?", txID).Error; err != nil {
		return nil, notFound(err, domain.ErrTransactionNotFound)
	}
	return mappers.ToDomainTransaction(&model), nil
}

func (r *DefaultLedgerRepository) FindTransactionByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	var model models.TransactionModel
	err := r.DB.WithContext(ctx).
		Where("reference = ?", reference).
		Order("created_at asc").
		First(&model).Error
	if err != nil {
		return nil, notFound(err, domain.ErrTransactionNotFound)
	}
	return mappers.ToDomainTransaction(&model), nil
}

// FindTransactionByOrderID returns the payment row of an order. Refund rows
// share the order id and are skipped.
func (r *DefaultLedgerRepository) FindTransactionByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error) {
	var model models.TransactionModel
	err := r.DB.WithContext(ctx).
		Where("order_id = ? AND alert_type <> ?", orderID, string(domain.AlertReverse)).
		Order("created_at asc").
		First(&model).Error
	if err != nil {
		return nil, notFound(err, domain.ErrTransactionNotFound)
	}
	return mappers.ToDomainTransaction(&model), nil
}

func (r *DefaultLedgerRepository) GetWalletByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	var model models.WalletModel
	if err := r.DB.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err, domain.ErrWalletNotFound)
	}
	return mappers.ToDomainWallet(&model), nil
}

func (r *DefaultLedgerRepository) ListTransactions(ctx context.Context, filter domain.TransactionFilter, page domain.Pagination) ([]*domain.Transaction, int64, error) {
	page = page.Normalize()

	query := r.DB.WithContext(ctx).Model(&models.TransactionModel{})
	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Reference != "" {
		query = query.Where("reference = ?", filter.Reference)
	}
	if filter.PaymentMethod != "" {
		query = query.Where("payment_method = ?", string(filter.PaymentMethod))
	}
	if filter.AlertType != "" {
		query = query.Where("alert_type = ?", string(filter.AlertType))
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if !filter.CreatedBefore.IsZero() {
		query = query.Where("created_at < ?", filter.CreatedBefore)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var txModels []models.TransactionModel
	err := query.
		Order("created_at desc").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&txModels).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find transactions: %w", err)
	}

	txs := make([]*domain.Transaction, len(txModels))
	for i := range txModels {
		txs[i] = mappers.ToDomainTransaction(&txModels[i])
	}
	return txs, total, nil
}

// notFound maps gorm's sentinel to the domain one, leaving other errors
// untouched.
func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
