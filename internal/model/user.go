package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User represents the central user entity for logic and database structure
type User struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string      `gorm:"type:varchar(255);not null" json:"name"`
	Email        string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string      `gorm:"type:varchar(255);not null" json:"-"` // Omit hash from JSON responses
	Phone        string      `gorm:"type:varchar(20)" json:"phone"`
	Avatar       string      `gorm:"type:varchar(255)" json:"avatar"`
	Telegram     string      `gorm:"type:varchar(100)" json:"telegram"`
	RoleID       *uuid.UUID  `gorm:"type:uuid;index" json:"role_id"`
	Role         *Role       `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	DepartmentID *uuid.UUID  `gorm:"type:uuid;index" json:"department_id"`
	Department   *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	LastActiveAt *time.Time  `json:"last_active_at"`
	IsActive     bool        `gorm:"default:true" json:"is_active"`
	IsSystem     bool        `gorm:"default:false" json:"is_system"` // Protected against accidental deletion
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// SetPassword hashes and stores the plaintext password
func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// IsAdmin reports whether the user holds the built-in administrator role or a
// role granting edit access to the users section
func (u *User) IsAdmin() bool {
	if u.Role == nil {
		return false
	}
	if u.Role.Name == AdminRoleName {
		return true
	}
	return u.Role.Permissions.Allows("users", "edit")
}
