package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"farmer-admin/internal/config"
	"farmer-admin/internal/model"
	"farmer-admin/pkg/logger"
)

// Connect opens the Postgres pool with GORM statements logged through zap.
func Connect(cfg config.DatabaseConfig, log *zap.Logger, sqlLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // Disables implicit prepared statements for pgbouncer transaction mode
	}), &gorm.Config{
		Logger:         logger.NewGormLogger(log, logger.MapGormLogLevel(sqlLevel)),
		PrepareStmt:    false,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info("Database connection established",
		zap.String("host", cfg.Host),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)
	return db, nil
}

// Models lists every table owned by the service in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Farmer{},
		&model.InventoryItem{},
		&model.InventoryTransaction{},
		&model.FarmerDispatch{},
		&model.FarmerDispatchItem{},
		&model.Task{},
		&model.Message{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
