package repository

import (
	"context"
	"time"

	"merchcrm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditFilter narrows down audit log queries
type AuditFilter struct {
	Search     string // substring match over the action description
	UserID     *uuid.UUID
	EntityType string
	From       *time.Time
	To         *time.Time
}

// AuditRepository writes and reads the append-only audit log
type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, page, limit int, filter AuditFilter) ([]model.AuditLog, int64, error)
	Clear(ctx context.Context) error
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository returns a new instance of AuditRepository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, page, limit int, filter AuditFilter) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	query := GetDB(ctx, r.db).Model(&model.AuditLog{})
	if filter.Search != "" {
		query = query.Where("action ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("User").Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

func (r *auditRepository) Clear(ctx context.Context) error {
	return GetDB(ctx, r.db).Where("1 = 1").Delete(&model.AuditLog{}).Error
}
