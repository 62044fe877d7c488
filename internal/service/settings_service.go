package service

import (
	"context"
	"encoding/json"
	"errors"

	"merchcrm/internal/errlog"
	"merchcrm/internal/model"
	"merchcrm/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaintenanceState is the shape of the "maintenance_mode" setting
type MaintenanceState struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}

// SettingsService manages branding and the maintenance switch
type SettingsService interface {
	GetBranding(ctx context.Context) (*model.BrandingSettings, error)
	UpdateBranding(ctx context.Context, actorID uuid.UUID, branding model.BrandingSettings) (*model.BrandingSettings, error)
	GetMaintenance(ctx context.Context) (*MaintenanceState, error)
	SetMaintenance(ctx context.Context, actorID uuid.UUID, state MaintenanceState, meta RequestMeta) (*MaintenanceState, error)
}

type settingsService struct {
	settings repository.SettingsRepository
	audits   repository.AuditRepository
	security repository.SecurityRepository
	tx       repository.TransactionManager
	errors   *errlog.Recorder
}

// NewSettingsService returns a new instance of SettingsService
func NewSettingsService(
	settings repository.SettingsRepository,
	audits repository.AuditRepository,
	security repository.SecurityRepository,
	tx repository.TransactionManager,
	rec *errlog.Recorder,
) SettingsService {
	return &settingsService{settings: settings, audits: audits, security: security, tx: tx, errors: rec}
}

// GetBranding returns stored branding, falling back to defaults when the
// setting was never saved
func (s *settingsService) GetBranding(ctx context.Context) (*model.BrandingSettings, error) {
	setting, err := s.settings.Get(ctx, model.SettingBranding)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defaultBranding(), nil
		}
		s.errors.Record(ctx, err, "/api/settings/branding", "GetBranding", nil, nil)
		return nil, errors.New("Не удалось загрузить настройки")
	}

	var branding model.BrandingSettings
	if err := json.Unmarshal(setting.Value, &branding); err != nil {
		s.errors.Record(ctx, err, "/api/settings/branding", "GetBranding", nil, nil)
		return defaultBranding(), nil
	}
	return &branding, nil
}

// UpdateBranding stores the whole branding object. Keys this build does not
// know about pass through untouched.
func (s *settingsService) UpdateBranding(ctx context.Context, actorID uuid.UUID, branding model.BrandingSettings) (*model.BrandingSettings, error) {
	raw, err := json.Marshal(branding)
	if err != nil {
		s.errors.Record(ctx, err, "/api/settings/branding", "UpdateBranding", &actorID, nil)
		return nil, errors.New("Не удалось сохранить настройки")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.settings.Upsert(txCtx, model.SettingBranding, datatypes.JSON(raw)); err != nil {
			return err
		}
		return s.audits.Log(txCtx, newAuditLog(&actorID, model.ActionUpdateBranding, model.EntitySettings, model.SettingBranding, map[string]interface{}{
			"site_name": branding.SiteName,
		}))
	})
	if err != nil {
		s.errors.Record(ctx, err, "/api/settings/branding", "UpdateBranding", &actorID, nil)
		return nil, errors.New("Не удалось сохранить настройки")
	}

	return &branding, nil
}

func (s *settingsService) GetMaintenance(ctx context.Context) (*MaintenanceState, error) {
	setting, err := s.settings.Get(ctx, model.SettingMaintenanceMode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &MaintenanceState{}, nil
		}
		s.errors.Record(ctx, err, "/api/settings/maintenance", "GetMaintenance", nil, nil)
		return nil, errors.New("Не удалось загрузить настройки")
	}

	var state MaintenanceState
	if err := json.Unmarshal(setting.Value, &state); err != nil {
		s.errors.Record(ctx, err, "/api/settings/maintenance", "GetMaintenance", nil, nil)
		return &MaintenanceState{}, nil
	}
	return &state, nil
}

// SetMaintenance flips the maintenance switch and records it as a critical
// security event
func (s *settingsService) SetMaintenance(ctx context.Context, actorID uuid.UUID, state MaintenanceState, meta RequestMeta) (*MaintenanceState, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		s.errors.Record(ctx, err, "/api/settings/maintenance", "SetMaintenance", &actorID, nil)
		return nil, errors.New("Не удалось сохранить настройки")
	}

	if err := s.settings.Upsert(ctx, model.SettingMaintenanceMode, datatypes.JSON(raw)); err != nil {
		s.errors.Record(ctx, err, "/api/settings/maintenance", "SetMaintenance", &actorID, nil)
		return nil, errors.New("Не удалось сохранить настройки")
	}

	event := &model.SecurityEvent{
		UserID:     &actorID,
		EventType:  model.EventMaintenanceToggle,
		Severity:   model.SeverityCritical,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		EntityType: model.EntitySettings,
		Details:    datatypes.JSON(raw),
	}
	if err := s.security.LogEvent(ctx, event); err != nil {
		s.errors.Record(ctx, err, "/api/settings/maintenance", "SetMaintenance", &actorID, nil)
	}

	return &state, nil
}

func defaultBranding() *model.BrandingSettings {
	return &model.BrandingSettings{
		SiteName:      "MerchCRM",
		PrimaryColor:  "#4f46e5",
		SoundsEnabled: true,
	}
}
