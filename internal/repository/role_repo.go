package repository

import (
	"context"

	"merchcrm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoleRepository defines data access for Role entities
type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	List(ctx context.Context) ([]model.Role, error)
	ListByDepartment(ctx context.Context, departmentID uuid.UUID) ([]model.Role, error)
	Update(ctx context.Context, role *model.Role) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	SetDepartment(ctx context.Context, id uuid.UUID, departmentID *uuid.UUID) error
	AssignToDepartment(ctx context.Context, departmentID uuid.UUID, roleIDs []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository returns a new instance of RoleRepository
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Create(role).Error
}

func (r *roleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Department").First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) List(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := GetDB(ctx, r.db).Preload("Department").Order("name ASC").Find(&roles).Error
	return roles, err
}

func (r *roleRepository) ListByDepartment(ctx context.Context, departmentID uuid.UUID) ([]model.Role, error) {
	var roles []model.Role
	err := GetDB(ctx, r.db).Where("department_id = ?", departmentID).Order("name ASC").Find(&roles).Error
	return roles, err
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Save(role).Error
}

func (r *roleRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return GetDB(ctx, r.db).Model(&model.Role{}).Where("id = ?", id).Updates(fields).Error
}

// SetDepartment reassigns or clears a role's department link without touching
// any other role fields
func (r *roleRepository) SetDepartment(ctx context.Context, id uuid.UUID, departmentID *uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Role{}).Where("id = ?", id).
		Update("department_id", departmentID).Error
}

// AssignToDepartment bulk points the given roles at a department. Meant to run
// inside the department create/update transaction.
func (r *roleRepository) AssignToDepartment(ctx context.Context, departmentID uuid.UUID, roleIDs []uuid.UUID) error {
	if len(roleIDs) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Model(&model.Role{}).Where("id IN ?", roleIDs).
		Update("department_id", departmentID).Error
}

func (r *roleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Role{}).Error
}
