package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Permission sections and actions are a fixed cross product. Anything outside
// these lists is rejected at the boundary; an absent pair reads as false.
var (
	PermissionSections = []string{"clients", "orders", "inventory", "tasks", "users", "roles", "finance", "settings"}
	PermissionActions  = []string{"view", "create", "edit", "delete"}
)

// AdminRoleName is the built-in system role with full access
const AdminRoleName = "Администратор"

// PermissionMatrix maps section -> action -> allowed. Stored as jsonb.
type PermissionMatrix map[string]map[string]bool

// Role represents a named permission bundle, optionally attached to a department
type Role struct {
	ID           uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string           `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description  string           `gorm:"type:text" json:"description"`
	Permissions  PermissionMatrix `gorm:"type:jsonb;not null;default:'{}'" json:"permissions"`
	Color        string           `gorm:"type:varchar(50)" json:"color"`
	DepartmentID *uuid.UUID       `gorm:"type:uuid;index" json:"department_id"`
	Department   *Department      `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	IsSystem     bool             `gorm:"default:false" json:"is_system"` // Prevent deletion of built-in roles
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// Department groups users and roles organizationally
type Department struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Color       string    `gorm:"type:varchar(50);default:'indigo'" json:"color"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	IsSystem    bool      `gorm:"default:false" json:"is_system"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Value implements driver.Valuer so GORM can persist the matrix as jsonb
func (m PermissionMatrix) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for reading the jsonb column back
func (m *PermissionMatrix) Scan(value interface{}) error {
	if value == nil {
		*m = PermissionMatrix{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported type for permission matrix")
	}
	return json.Unmarshal(raw, m)
}

// Validate rejects unknown section or action keys. Missing keys are fine,
// they just read as false.
func (m PermissionMatrix) Validate() error {
	sections := make(map[string]bool, len(PermissionSections))
	for _, s := range PermissionSections {
		sections[s] = true
	}
	actions := make(map[string]bool, len(PermissionActions))
	for _, a := range PermissionActions {
		actions[a] = true
	}

	for section, perms := range m {
		if !sections[section] {
			return fmt.Errorf("неизвестный раздел прав: %s", section)
		}
		for action := range perms {
			if !actions[action] {
				return fmt.Errorf("неизвестное действие: %s.%s", section, action)
			}
		}
	}
	return nil
}

// Allows reports whether the matrix grants the given section/action pair
func (m PermissionMatrix) Allows(section, action string) bool {
	if m == nil {
		return false
	}
	return m[section][action]
}

// FullPermissionMatrix returns a matrix with every section/action set to true.
// Used when seeding the built-in administrator role.
func FullPermissionMatrix() PermissionMatrix {
	m := make(PermissionMatrix, len(PermissionSections))
	for _, section := range PermissionSections {
		perms := make(map[string]bool, len(PermissionActions))
		for _, action := range PermissionActions {
			perms[action] = true
		}
		m[section] = perms
	}
	return m
}

// EmptyPermissionMatrix returns a matrix with every section/action denied
func EmptyPermissionMatrix() PermissionMatrix {
	m := make(PermissionMatrix, len(PermissionSections))
	for _, section := range PermissionSections {
		perms := make(map[string]bool, len(PermissionActions))
		for _, action := range PermissionActions {
			perms[action] = false
		}
		m[section] = perms
	}
	return m
}
