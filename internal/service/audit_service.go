package service

import (
	"context"
	"errors"
	"time"

	"merchcrm/internal/errlog"
	"merchcrm/internal/model"
	"merchcrm/internal/repository"

	"github.com/google/uuid"
)

// SecuritySummary aggregates the last 24 hours of security activity
type SecuritySummary struct {
	Since          time.Time              `json:"since"`
	Counts         []repository.EventCount `json:"counts"`
	RecentCritical []model.SecurityEvent  `json:"recent_critical"`
}

// AuditService exposes the audit log, security events and system errors
type AuditService interface {
	ListAuditLogs(ctx context.Context, page, limit int, filter repository.AuditFilter) ([]model.AuditLog, int64, error)
	ClearAuditLogs(ctx context.Context, actorID uuid.UUID) error

	ListSecurityEvents(ctx context.Context, page, limit int, filter repository.SecurityEventFilter) ([]model.SecurityEvent, int64, error)
	SecuritySummary(ctx context.Context) (*SecuritySummary, error)
	ClearFailedLogins(ctx context.Context, actorID uuid.UUID) error

	ListSystemErrors(ctx context.Context, since time.Time, limit int) ([]model.SystemError, error)
	ClearSystemErrors(ctx context.Context, actorID uuid.UUID) error
}

type auditService struct {
	audits   repository.AuditRepository
	security repository.SecurityRepository
	tx       repository.TransactionManager
	errors   *errlog.Recorder
}

// NewAuditService returns a new instance of AuditService
func NewAuditService(
	audits repository.AuditRepository,
	security repository.SecurityRepository,
	tx repository.TransactionManager,
	rec *errlog.Recorder,
) AuditService {
	return &auditService{audits: audits, security: security, tx: tx, errors: rec}
}

func (s *auditService) ListAuditLogs(ctx context.Context, page, limit int, filter repository.AuditFilter) ([]model.AuditLog, int64, error) {
	logs, total, err := s.audits.List(ctx, page, limit, filter)
	if err != nil {
		s.errors.Record(ctx, err, "/api/audit", "ListAuditLogs", nil, nil)
		return nil, 0, errors.New("Не удалось загрузить логи аудита")
	}
	return logs, total, nil
}

// ClearAuditLogs wipes the log, then writes a fresh entry recording who did
// it. Both steps commit together: a cleared log always starts with its own
// clearing on record.
func (s *auditService) ClearAuditLogs(ctx context.Context, actorID uuid.UUID) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.audits.Clear(txCtx); err != nil {
			return err
		}
		return s.audits.Log(txCtx, newAuditLog(&actorID, model.ActionClearAuditLogs, model.EntitySystem, "", nil))
	})
	if err != nil {
		s.errors.Record(ctx, err, "/api/audit", "ClearAuditLogs", &actorID, nil)
		return errors.New("Не удалось очистить логи аудита")
	}
	return nil
}

func (s *auditService) ListSecurityEvents(ctx context.Context, page, limit int, filter repository.SecurityEventFilter) ([]model.SecurityEvent, int64, error) {
	events, total, err := s.security.ListEvents(ctx, page, limit, filter)
	if err != nil {
		s.errors.Record(ctx, err, "/api/security/events", "ListSecurityEvents", nil, nil)
		return nil, 0, errors.New("Не удалось загрузить события безопасности")
	}
	return events, total, nil
}

func (s *auditService) SecuritySummary(ctx context.Context) (*SecuritySummary, error) {
	since := time.Now().Add(-24 * time.Hour)

	counts, err := s.security.CountEventsSince(ctx, since)
	if err != nil {
		s.errors.Record(ctx, err, "/api/security/summary", "SecuritySummary", nil, nil)
		return nil, errors.New("Не удалось загрузить сводку безопасности")
	}
	critical, err := s.security.RecentCritical(ctx, since, 10)
	if err != nil {
		s.errors.Record(ctx, err, "/api/security/summary", "SecuritySummary", nil, nil)
		return nil, errors.New("Не удалось загрузить сводку безопасности")
	}

	return &SecuritySummary{Since: since, Counts: counts, RecentCritical: critical}, nil
}

func (s *auditService) ClearFailedLogins(ctx context.Context, actorID uuid.UUID) error {
	if err := s.security.ClearFailedLogins(ctx); err != nil {
		s.errors.Record(ctx, err, "/api/security/events", "ClearFailedLogins", &actorID, nil)
		return errors.New("Не удалось очистить неудачные попытки входа")
	}
	return nil
}

func (s *auditService) ListSystemErrors(ctx context.Context, since time.Time, limit int) ([]model.SystemError, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	errs, err := s.security.ListErrors(ctx, since, limit)
	if err != nil {
		s.errors.Record(ctx, err, "/api/system/errors", "ListSystemErrors", nil, nil)
		return nil, errors.New("Не удалось загрузить системные ошибки")
	}
	return errs, nil
}

func (s *auditService) ClearSystemErrors(ctx context.Context, actorID uuid.UUID) error {
	if err := s.security.ClearErrors(ctx); err != nil {
		s.errors.Record(ctx, err, "/api/system/errors", "ClearSystemErrors", &actorID, nil)
		return errors.New("Не удалось очистить системные ошибки")
	}
	return nil
}
