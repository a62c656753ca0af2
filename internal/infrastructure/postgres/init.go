package postgres

import (
	"fmt"
	"log"

	"github.com/LavaJover/shvark-billing-service/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.BillingConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{}
	if cfg.Env != "local" {
		gormCfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.BillingDB.Dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.BillingDB.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.BillingDB.MaxIdleConns)

	return db, nil
}

func MustInitDB(cfg *config.BillingConfig) *gorm.DB {
	db, err := InitDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}
	return db
}
