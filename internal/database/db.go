package database

import (
	"merchcrm/internal/model"
	"merchcrm/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Department{},
		&model.Role{},
		&model.User{},
		&model.AuditLog{},
		&model.SecurityEvent{},
		&model.SystemError{},
		&model.SystemSetting{},
		&model.StorageLocation{},
		&model.InventoryItem{},
		&model.InventoryTransaction{},
		&model.Order{},
		&model.Payment{},
		&model.Expense{},
	)
	if err != nil {
		logger.Get().WithError(err).Warn("failed to auto-migrate models")
	}

	return db, nil
}
