package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Security event types
const (
	EventLoginSuccess      = "login_success"
	EventLoginFailed       = "login_failed"
	EventLogout            = "logout"
	EventPasswordChange    = "password_change"
	EventProfileUpdate     = "profile_update"
	EventRoleChange        = "role_change"
	EventPermissionChange  = "permission_change"
	EventRecordDelete      = "record_delete"
	EventSettingsChange    = "settings_change"
	EventMaintenanceToggle = "maintenance_mode_toggle"
)

// Severity levels shared by security events and system errors
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// SecurityEvent records authentication and sensitive-action activity,
// separate from the audit log
type SecurityEvent struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	User       *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	EventType  string         `gorm:"type:varchar(50);not null;index" json:"event_type"`
	Severity   string         `gorm:"type:varchar(20);default:'info';not null" json:"severity"`
	IPAddress  string         `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent  string         `gorm:"type:varchar(255)" json:"user_agent"`
	EntityType string         `gorm:"type:varchar(50)" json:"entity_type"`
	EntityID   *uuid.UUID     `gorm:"type:uuid" json:"entity_id"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

// SystemError stores caught server-side failures for operational visibility.
// Writing here never blocks or fails the primary response.
type SystemError struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	Message   string         `gorm:"type:text;not null" json:"message"`
	Path      string         `gorm:"type:varchar(255)" json:"path"`
	Method    string         `gorm:"type:varchar(100)" json:"method"`
	Severity  string         `gorm:"type:varchar(20);default:'error';not null" json:"severity"`
	Details   datatypes.JSON `gorm:"type:jsonb" json:"details"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}
