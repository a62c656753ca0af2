package mappers

import (
	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/postgres/models"
)

func ToDomainProduct(model *models.ProductModel) *domain.Product {
	return &domain.Product{
		ID:             model.ID,
		Name:           model.Name,
		Price:          model.Price,
		Quantity:       model.Quantity,
		IsOutOfStock:   model.IsOutOfStock,
		HasBeenDeleted: model.HasBeenDeleted,
	}
}

func ToGORMProduct(product *domain.Product) *models.ProductModel {
	return &models.ProductModel{
		ID:             product.ID,
		Name:           product.Name,
		Price:          product.Price,
		Quantity:       product.Quantity,
		IsOutOfStock:   product.IsOutOfStock,
		HasBeenDeleted: product.HasBeenDeleted,
	}
}

func ToDomainTransaction(model *models.TransactionModel) *domain.Transaction {
	tx := &domain.Transaction{
		ID:            model.ID,
		PaymentMethod: domain.PaymentMethod(model.PaymentMethod),
		Amount:        model.Amount,
		Status:        domain.TransactionStatus(model.Status),
		Reference:     model.Reference,
		UserID:        model.UserID,
		AlertType:     domain.AlertType(model.AlertType),
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
	if model.OrderID != nil {
		orderID := *model.OrderID
		tx.OrderID = &orderID
	}
	return tx
}

func ToGORMTransaction(tx *domain.Transaction) *models.TransactionModel {
	model := &models.TransactionModel{
		ID:            tx.ID,
		PaymentMethod: string(tx.PaymentMethod),
		Amount:        tx.Amount,
		Status:        string(tx.Status),
		Reference:     tx.Reference,
		UserID:        tx.UserID,
		AlertType:     string(tx.AlertType),
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}
	if tx.OrderID != nil {
		orderID := *tx.OrderID
		model.OrderID = &orderID
	}
	return model
}

func ToDomainWallet(model *models.WalletModel) *domain.Wallet {
	return &domain.Wallet{
		ID:        model.ID,
		UserID:    model.UserID,
		Balance:   model.Balance,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func ToGORMWallet(wallet *domain.Wallet) *models.WalletModel {
	return &models.WalletModel{
		ID:        wallet.ID,
		UserID:    wallet.UserID,
		Balance:   wallet.Balance,
		CreatedAt: wallet.CreatedAt,
		UpdatedAt: wallet.UpdatedAt,
	}
}
