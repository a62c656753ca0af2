package logger

import (
	"context"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"go.uber.org/zap"
)

// DefaultUncreatedOrdersLogger writes each failed checkout to the service
// log before persisting it, so failures stay visible when the store is
// down.
type DefaultUncreatedOrdersLogger struct {
	repo   domain.UncreatedOrderRepository
	logger *zap.Logger
}

func NewDefaultUncreatedOrdersLogger(repo domain.UncreatedOrderRepository, logger *zap.Logger) *DefaultUncreatedOrdersLogger {
	return &DefaultUncreatedOrdersLogger{
		repo:   repo,
		logger: logger.Named("uncreated_orders"),
	}
}

func (l *DefaultUncreatedOrdersLogger) CreateLog(ctx context.Context, event *domain.UncreatedOrder) error {
	l.logger.Warn("checkout failed",
		zap.String("user_id", event.UserID),
		zap.String("email", event.Email),
		zap.String("payment_method", string(event.PaymentMethod)),
		zap.String("amount", event.Amount.String()),
		zap.Strings("product_ids", event.ProductIDs),
		zap.String("error", event.ErrorMessage),
	)
	if err := l.repo.CreateLog(ctx, event); err != nil {
		l.logger.Error("failed to persist uncreated order", zap.Error(err))
		return err
	}
	return nil
}

func (l *DefaultUncreatedOrdersLogger) GetLogsWithFilters(ctx context.Context, filter *domain.UncreatedOrdersFilter, page domain.Pagination) ([]*domain.UncreatedOrder, int64, error) {
	return l.repo.GetLogsWithFilters(ctx, filter, page)
}
