package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Audit action descriptions, kept in the operator's language like the UI shows them
const (
	ActionCreateUser = "Создание пользователя"
	ActionUpdateUser = "Обновление пользователя"
	ActionDeleteUser = "Удаление пользователя"

	ActionCreateRole      = "Создание роли"
	ActionUpdateRole      = "Обновление роли"
	ActionDeleteRole      = "Удаление роли"
	ActionUpdateRolePerms = "Обновление прав роли"

	ActionCreateDepartment = "Создание отдела"
	ActionUpdateDepartment = "Обновление отдела"
	ActionDeleteDepartment = "Удаление отдела"

	ActionUpdateBranding  = "Обновление настроек бренда"
	ActionClearAuditLogs  = "Логи аудита очищены"
	ActionCreateExpense   = "Создание расхода"
	ActionCreateItem      = "Создание товара"
	ActionInventoryChange = "Движение по складу"
)

// Entity types recorded alongside audit entries
const (
	EntityUser       = "user"
	EntityRole       = "role"
	EntityDepartment = "department"
	EntitySettings   = "settings"
	EntityExpense    = "expense"
	EntityInventory  = "inventory"
	EntitySystem     = "system"
)

// AuditLog is the append-only record of every mutating administrative action
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"` // Nullable for system-originated entries
	User       *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string         `gorm:"type:varchar(255);not null;index" json:"action"`
	EntityType string         `gorm:"type:varchar(50);not null;index:idx_audit_entity" json:"entity_type"`
	EntityID   string         `gorm:"type:varchar(50);index:idx_audit_entity" json:"entity_id"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}
