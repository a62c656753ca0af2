package repository

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

func (r *DefaultLedgerRepository) GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	return getOrder(r.DB.WithContext(ctx), "id = ?", orderID)
}

func (r *DefaultLedgerRepository) FindOrderByPaymentIntentID(ctx context.Context, intentID string) (*domain.Order, error) {
	if intentID == "" {
		return nil, domain.ErrOrderNotFound
	}
	return getOrder(r.DB.WithContext(ctx), "payment_intent_id = ?", intentID)
}

func (r *DefaultLedgerRepository) ListOrders(ctx context.Context, filter domain.OrderFilter, page domain.Pagination) ([]*domain.Order, int64, error) {
	page = page.Normalize()

	baseQuery := r.DB.WithContext(ctx).Model(&models.OrderModel{})
	if filter.Status != "" {
		baseQuery = baseQuery.Where("status = ?", string(filter.Status))
	}
	if filter.Email != "" {
		baseQuery = baseQuery.Where("email = ?", filter.Email)
	}
	if filter.UserID != "" {
		baseQuery = baseQuery.Where("user_id = ?", filter.UserID)
	}
	if filter.IsDelivered != nil {
		baseQuery = baseQuery.Where("is_delivered = ?", *filter.IsDelivered)
	}
	if !filter.CreatedFrom.IsZero() {
		baseQuery = baseQuery.Where("created_at >= ?", filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		baseQuery = baseQuery.Where("created_at <= ?", filter.CreatedTo)
	}

	var total int64
	if err := baseQuery.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orderModels []models.OrderModel
	err := baseQuery.
		Preload("Products").
		Order("created_at desc").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&orderModels).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find orders: %w", err)
	}

	orders := make([]*domain.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = mappers.ToDomainOrder(&orderModels[i])
	}
	return orders, total, nil
}

func (r *DefaultLedgerRepository) UpdateOrderTracker(ctx context.Context, orderID string, update domain.TrackerUpdate) (*domain.Order, error) {
	updates := map[string]any{}
	if update.IsDelivered != nil {
		updates["is_delivered"] = *update.IsDelivered
	}
	if update.DeliveryNote != nil {
		updates["delivery_note"] = *update.DeliveryNote
	}

	db := r.DB.WithContext(ctx)
	if len(updates) > 0 {
		res := db.Model(&models.OrderModel{}).Where("id = ?", orderID).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update order tracker: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, domain.ErrOrderNotFound
		}
	}
	return getOrder(db, "id = ?", orderID)
}

func getOrder(db *gorm.DB, cond string, arg any) (*domain.Order, error) {
	var order models.OrderModel
	if err := db.Preload("Products").First(&order, cond, arg).Error; err != nil {
		return nil, notFound(err, domain.ErrOrderNotFound)
	}
	return mappers.ToDomainOrder(&order), nil
}
