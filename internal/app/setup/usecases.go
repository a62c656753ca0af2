package setup

import (
	"fmt"

	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/gateway/paystack"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/gateway/stripe"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/notifier"
	"github.com/LavaJover/shvark-billing-service/internal/notification"
	"github.com/LavaJover/shvark-billing-service/internal/usecase/billing"
)

type UseCases struct {
	Billing *billing.DefaultBillingUsecase
	Queue   *notification.Queue
}

func InitializeUseCases(deps *Dependencies) (*UseCases, error) {
	cfg := deps.Config

	queue := notification.NewQueue(
		notification.NewSenderDeliverer(notifier.NewMailer(cfg.Mailer)),
		notification.Config{
			MaxAttempts:     cfg.NotificationQueue.MaxAttempts,
			BackoffUnit:     cfg.NotificationQueue.BackoffUnit,
			SweepInterval:   cfg.NotificationQueue.SweepInterval,
			DeliveryTimeout: cfg.NotificationQueue.DeliveryTimeout,
		},
		deps.Logger,
		notification.WithMetrics(deps.Metrics),
	)

	opts := []billing.Option{
		billing.WithMetrics(deps.Metrics),
		billing.WithFailureLog(logger.NewDefaultUncreatedOrdersLogger(deps.Repositories.UncreatedOrders, deps.Logger)),
	}
	if deps.Publisher != nil {
		opts = append(opts, billing.WithEventPublisher(deps.Publisher))
	}
	if deps.Locker != nil {
		opts = append(opts, billing.WithVerificationLocker(deps.Locker, cfg.Redis.VerifyLockTTL))
	}

	billingUsecase, err := billing.NewDefaultBillingUsecase(
		deps.Repositories.Ledger,
		stripe.NewIntentGateway(cfg.Stripe),
		paystack.NewRedirectGateway(cfg.Paystack),
		queue,
		deps.Logger,
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("billing usecase: %w", err)
	}

	return &UseCases{
		Billing: billingUsecase,
		Queue:   queue,
	}, nil
}
