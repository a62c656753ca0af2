package setup

import (
	"fmt"

	"github.com/LavaJover/shvark-billing-service/internal/config"
	"github.com/LavaJover/shvark-billing-service/internal/domain"
	publisher "github.com/LavaJover/shvark-billing-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/redis"
	"github.com/mediocregopher/radix/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config   *config.BillingConfig
	DB       *gorm.DB
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.BillingMetrics

	// Kafka and Redis are optional; these stay nil when disabled.
	Publisher  *publisher.DefaultKafkaPublisher
	Subscriber *publisher.DefaultKafkaSubscriber
	RedisPool  *radix.Pool
	Locker     domain.VerificationLocker

	Repositories *Repositories
}

type Repositories struct {
	Ledger          domain.LedgerRepository
	UncreatedOrders domain.UncreatedOrderRepository
}

func InitializeDependencies(cfg *config.BillingConfig, logger *zap.Logger) (*Dependencies, error) {
	db, err := postgres.InitDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := &Dependencies{
		Config:   cfg,
		DB:       db,
		Logger:   logger,
		Registry: registry,
		Metrics:  metrics.NewBillingMetrics(registry),
		Repositories: &Repositories{
			Ledger:          repository.NewDefaultLedgerRepository(db),
			UncreatedOrders: repository.NewDefaultUncreatedOrderRepository(db),
		},
	}

	if cfg.KafkaService.Enabled {
		deps.Publisher, err = publisher.NewDefaultKafkaPublisher(cfg.KafkaService)
		if err != nil {
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		deps.Subscriber, err = publisher.NewDefaultKafkaSubscriber(cfg.KafkaService, logger)
		if err != nil {
			return nil, fmt.Errorf("kafka subscriber: %w", err)
		}
	}

	if cfg.Redis.Enabled {
		deps.RedisPool, err = redis.NewPool(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		deps.Locker = redis.NewLocker(deps.RedisPool, logger)
	}

	return deps, nil
}

func (d *Dependencies) Close() {
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			d.Logger.Warn("failed to close kafka publisher", zap.Error(err))
		}
	}
	if d.RedisPool != nil {
		d.RedisPool.Close()
	}
	if sqlDB, err := d.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
