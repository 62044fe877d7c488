package repository

import (
	"context"

	"merchcrm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DepartmentRepository defines data access for Department entities
type DepartmentRepository interface {
	Create(ctx context.Context, dept *model.Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Department, error)
	List(ctx context.Context) ([]model.Department, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type departmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository returns a new instance of DepartmentRepository
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) Create(ctx context.Context, dept *model.Department) error {
	return GetDB(ctx, r.db).Create(dept).Error
}

func (r *departmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	var dept model.Department
	if err := GetDB(ctx, r.db).First(&dept, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	err := GetDB(ctx, r.db).Order("name ASC").Find(&depts).Error
	return depts, err
}

func (r *departmentRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return GetDB(ctx, r.db).Model(&model.Department{}).Where("id = ?", id).Updates(fields).Error
}

func (r *departmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Department{}).Error
}
