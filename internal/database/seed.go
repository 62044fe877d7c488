package database

import (
	"errors"

	"merchcrm/internal/model"
	"merchcrm/pkg/logger"

	"gorm.io/gorm"
)

// Seed makes sure the built-in administrator role, the first admin account
// and the default storage location exist. Safe to run on every start.
func Seed(db *gorm.DB, adminEmail, adminPassword string) error {
	adminRole, err := seedAdminRole(db)
	if err != nil {
		return err
	}
	if err := seedAdminUser(db, adminRole, adminEmail, adminPassword); err != nil {
		return err
	}
	return seedDefaultLocation(db)
}

func seedAdminRole(db *gorm.DB) (*model.Role, error) {
	var role model.Role
	err := db.First(&role, "name = ?", model.AdminRoleName).Error
	if err == nil {
		return &role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role = model.Role{
		Name:        model.AdminRoleName,
		Description: "Полный доступ ко всем разделам",
		Permissions: model.FullPermissionMatrix(),
		Color:       "red",
		IsSystem:    true,
	}
	if err := db.Create(&role).Error; err != nil {
		return nil, err
	}
	logger.Get().Info("seeded administrator role")
	return &role, nil
}

func seedAdminUser(db *gorm.DB, role *model.Role, email, password string) error {
	var count int64
	if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := model.User{
		Name:     "Администратор",
		Email:    email,
		RoleID:   &role.ID,
		IsActive: true,
		IsSystem: true,
	}
	if err := admin.SetPassword(password); err != nil {
		return err
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	logger.Get().WithField("email", email).Info("seeded first administrator account")
	return nil
}

func seedDefaultLocation(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.StorageLocation{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	location := model.StorageLocation{
		Name:      "Основной склад",
		Type:      model.LocationWarehouse,
		IsDefault: true,
		IsActive:  true,
		IsSystem:  true,
	}
	return db.Create(&location).Error
}
