package mappers

import (
	"strings"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/postgres/models"
)

func ToDomainUncreatedOrder(model *models.UncreatedOrderModel) *domain.UncreatedOrder {
	var productIDs []string
	if model.ProductIDs != "" {
		productIDs = strings.Split(model.ProductIDs, ",")
	}
	return &domain.UncreatedOrder{
		ID:            model.ID,
		UserID:        model.UserID,
		Email:         model.Email,
		PaymentMethod: domain.PaymentMethod(model.PaymentMethod),
		Amount:        model.Amount,
		ProductIDs:    productIDs,
		ErrorMessage:  model.ErrorMessage,
		CreatedAt:     model.CreatedAt,
	}
}

func ToGORMUncreatedOrder(uncreatedLog *domain.UncreatedOrder) *models.UncreatedOrderModel {
	return &models.UncreatedOrderModel{
		ID:            uncreatedLog.ID,
		UserID:        uncreatedLog.UserID,
		Email:         uncreatedLog.Email,
		PaymentMethod: string(uncreatedLog.PaymentMethod),
		Amount:        uncreatedLog.Amount,
		ProductIDs:    strings.Join(uncreatedLog.ProductIDs, ","),
		ErrorMessage:  uncreatedLog.ErrorMessage,
		CreatedAt:     uncreatedLog.CreatedAt,
	}
}
