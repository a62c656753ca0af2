package mappers

import (
	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/postgres/models"
)

func ToDomainOrder(model *models.OrderModel) *domain.Order {
	order := &domain.Order{
		ID: model.ID,
		Buyer: domain.Buyer{
			UserID:     model.UserID,
			FirstName:  model.FirstName,
			LastName:   model.LastName,
			Email:      model.Email,
			Phone:      model.Phone,
			TownOrCity: model.TownOrCity,
			PostCode:   model.PostCode,
			State:      model.State,
			Country:    model.Country,
		},
		DeliveryAddress: model.DeliveryAddress,
		Amount:          model.Amount,
		Reference:       model.Reference,
		PaymentIntentID: model.PaymentIntentID,
		Status:          domain.OrderStatus(model.Status),
		IsDelivered:     model.IsDelivered,
		DeliveryNote:    model.DeliveryNote,
		Products:        make([]domain.OrderProduct, 0, len(model.Products)),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
	for i := range model.Products {
		order.Products = append(order.Products, ToDomainOrderProduct(&model.Products[i]))
	}
	return order
}

func ToGORMOrder(order *domain.Order) *models.OrderModel {
	model := &models.OrderModel{
		ID:              order.ID,
		UserID:          order.Buyer.UserID,
		FirstName:       order.Buyer.FirstName,
		LastName:        order.Buyer.LastName,
		Email:           order.Buyer.Email,
		Phone:           order.Buyer.Phone,
		TownOrCity:      order.Buyer.TownOrCity,
		PostCode:        order.Buyer.PostCode,
		State:           order.Buyer.State,
		Country:         order.Buyer.Country,
		DeliveryAddress: order.DeliveryAddress,
		Amount:          order.Amount,
		Reference:       order.Reference,
		PaymentIntentID: order.PaymentIntentID,
		Status:          string(order.Status),
		IsDelivered:     order.IsDelivered,
		DeliveryNote:    order.DeliveryNote,
		Products:        make([]models.OrderProductModel, 0, len(order.Products)),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, p := range order.Products {
		model.Products = append(model.Products, models.OrderProductModel{
			ID:          p.ID,
			OrderID:     order.ID,
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			Quantity:    p.Quantity,
			UnitPrice:   p.UnitPrice,
		})
	}
	return model
}

func ToDomainOrderProduct(model *models.OrderProductModel) domain.OrderProduct {
	return domain.OrderProduct{
		ID:          model.ID,
		OrderID:     model.OrderID,
		ProductID:   model.ProductID,
		ProductName: model.ProductName,
		Quantity:    model.Quantity,
		UnitPrice:   model.UnitPrice,
	}
}
