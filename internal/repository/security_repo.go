package repository

import (
	"context"
	"time"

	"merchcrm/internal/model"

	"gorm.io/gorm"
)

// SecurityEventFilter narrows down security event queries
type SecurityEventFilter struct {
	EventType string
	Severity  string
	From      *time.Time
	To        *time.Time
}

// EventCount is one (event type, severity) bucket of the 24h summary
type EventCount struct {
	EventType string `json:"event_type"`
	Severity  string `json:"severity"`
	Count     int64  `json:"count"`
}

// SecurityRepository records and queries security events and system errors
type SecurityRepository interface {
	LogEvent(ctx context.Context, event *model.SecurityEvent) error
	ListEvents(ctx context.Context, page, limit int, filter SecurityEventFilter) ([]model.SecurityEvent, int64, error)
	CountEventsSince(ctx context.Context, since time.Time) ([]EventCount, error)
	RecentCritical(ctx context.Context, since time.Time, limit int) ([]model.SecurityEvent, error)
	ClearFailedLogins(ctx context.Context) error

	LogError(ctx context.Context, sysErr *model.SystemError) error
	ListErrors(ctx context.Context, since time.Time, limit int) ([]model.SystemError, error)
	ClearErrors(ctx context.Context) error
}

type securityRepository struct {
	db *gorm.DB
}

// NewSecurityRepository returns a new instance of SecurityRepository
func NewSecurityRepository(db *gorm.DB) SecurityRepository {
	return &securityRepository{db: db}
}

func (r *securityRepository) LogEvent(ctx context.Context, event *model.SecurityEvent) error {
	return GetDB(ctx, r.db).Create(event).Error
}

func (r *securityRepository) ListEvents(ctx context.Context, page, limit int, filter SecurityEventFilter) ([]model.SecurityEvent, int64, error) {
	var events []model.SecurityEvent
	var total int64

	query := GetDB(ctx, r.db).Model(&model.SecurityEvent{})
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
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
		Offset(offset).Limit(limit).Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (r *securityRepository) CountEventsSince(ctx context.Context, since time.Time) ([]EventCount, error) {
	var counts []EventCount
	err := GetDB(ctx, r.db).Model(&model.SecurityEvent{}).
		Select("event_type, severity, count(*) as count").
		Where("created_at >= ?", since).
		Group("event_type, severity").
		Scan(&counts).Error
	return counts, err
}

func (r *securityRepository) RecentCritical(ctx context.Context, since time.Time, limit int) ([]model.SecurityEvent, error) {
	var events []model.SecurityEvent
	err := GetDB(ctx, r.db).Preload("User").
		Where("severity = ? AND created_at >= ?", model.SeverityCritical, since).
		Order("created_at DESC").Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *securityRepository) ClearFailedLogins(ctx context.Context) error {
	return GetDB(ctx, r.db).Where("event_type = ?", model.EventLoginFailed).
		Delete(&model.SecurityEvent{}).Error
}

func (r *securityRepository) LogError(ctx context.Context, sysErr *model.SystemError) error {
	return GetDB(ctx, r.db).Create(sysErr).Error
}

func (r *securityRepository) ListErrors(ctx context.Context, since time.Time, limit int) ([]model.SystemError, error) {
	var errs []model.SystemError
	err := GetDB(ctx, r.db).Where("created_at >= ?", since).
		Order("created_at DESC").Limit(limit).
		Find(&errs).Error
	return errs, err
}

func (r *securityRepository) ClearErrors(ctx context.Context) error {
	return GetDB(ctx, r.db).Where("1 = 1").Delete(&model.SystemError{}).Error
}
