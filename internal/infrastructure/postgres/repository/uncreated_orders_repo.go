package repository

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultUncreatedOrderRepository struct {
	DB *gorm.DB
}

func NewDefaultUncreatedOrderRepository(db *gorm.DB) *DefaultUncreatedOrderRepository {
	return &DefaultUncreatedOrderRepository{
		DB: db,
	}
}

func (r *DefaultUncreatedOrderRepository) CreateLog(ctx context.Context, log *domain.UncreatedOrder) error {
	model := mappers.ToGORMUncreatedOrder(log)
	return r.DB.WithContext(ctx).Create(model).Error
}

func (r *DefaultUncreatedOrderRepository) GetLogsWithFilters(ctx context.Context, filter *domain.UncreatedOrdersFilter, page domain.Pagination) ([]*domain.UncreatedOrder, int64, error) {
	page = page.Normalize()

	query := applyFilters(r.DB.WithContext(ctx).Model(&models.UncreatedOrderModel{}), filter)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count uncreated orders: %w", err)
	}

	var uncreatedOrderModels []*models.UncreatedOrderModel
	if err := query.Order("created_at desc").Offset(page.Offset()).Limit(page.Limit).Find(&uncreatedOrderModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find uncreated orders: %w", err)
	}

	uncreatedOrders := make([]*domain.UncreatedOrder, len(uncreatedOrderModels))
	for i, uncreatedOrderModel := range uncreatedOrderModels {
		uncreatedOrders[i] = mappers.ToDomainUncreatedOrder(uncreatedOrderModel)
	}

	return uncreatedOrders, total, nil
}

func applyFilters(query *gorm.DB, filter *domain.UncreatedOrdersFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.PaymentMethod != nil {
		query = query.Where("payment_method = ?", string(*filter.PaymentMethod))
	}
	if filter.TimeOpeningStart != nil {
		query = query.Where("created_at >= ?", *filter.TimeOpeningStart)
	}
	if filter.TimeOpeningEnd != nil {
		query = query.Where("created_at <= ?", *filter.TimeOpeningEnd)
	}
	return query
}
