package repository

import (
	"context"

	"merchcrm/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository reads and writes the system_settings key/value store
type SettingsRepository interface {
	Get(ctx context.Context, key string) (*model.SystemSetting, error)
	Upsert(ctx context.Context, key string, value datatypes.JSON) error
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository returns a new instance of SettingsRepository
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, key string) (*model.SystemSetting, error) {
	var setting model.SystemSetting
	if err := GetDB(ctx, r.db).First(&setting, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, key string, value datatypes.JSON) error {
	setting := model.SystemSetting{Key: key, Value: value}
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}
