package service

import (
	"context"
	"errors"
	"strings"

	"merchcrm/internal/errlog"
	"merchcrm/internal/model"
	"merchcrm/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateDepartmentRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	RoleIDs     []string `json:"role_ids"`
}

// UpdateDepartmentRequest carries a partial update. When RoleIDs is non-nil
// the department's role set is replaced with exactly the given list.
type UpdateDepartmentRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Color       *string  `json:"color"`
	IsActive    *bool    `json:"is_active"`
	RoleIDs     []string `json:"role_ids"`
}

type DeleteDepartmentRequest struct {
	Password string `json:"password"`
}

// DepartmentService implements department management
type DepartmentService interface {
	List(ctx context.Context) ([]model.Department, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Department, error)
	Roles(ctx context.Context, id uuid.UUID) ([]model.Role, error)
	Create(ctx context.Context, actorID uuid.UUID, req CreateDepartmentRequest) (*model.Department, error)
	Update(ctx context.Context, actorID, id uuid.UUID, req UpdateDepartmentRequest) (*model.Department, error)
	Delete(ctx context.Context, actorID, id uuid.UUID, req DeleteDepartmentRequest, meta RequestMeta) error
}

type departmentService struct {
	departments repository.DepartmentRepository
	roles       repository.RoleRepository
	users       repository.UserRepository
	audits      repository.AuditRepository
	security    repository.SecurityRepository
	tx          repository.TransactionManager
	errors      *errlog.Recorder
}

// NewDepartmentService returns a new instance of DepartmentService
func NewDepartmentService(
	departments repository.DepartmentRepository,
	roles repository.RoleRepository,
	users repository.UserRepository,
	audits repository.AuditRepository,
	security repository.SecurityRepository,
	tx repository.TransactionManager,
	rec *errlog.Recorder,
) DepartmentService {
	return &departmentService{
		departments: departments,
		roles:       roles,
		users:       users,
		audits:      audits,
		security:    security,
		tx:          tx,
		errors:      rec,
	}
}

func (s *departmentService) List(ctx context.Context) ([]model.Department, error) {
	departments, err := s.departments.List(ctx)
	if err != nil {
		s.errors.Record(ctx, err, "/api/departments", "ListDepartments", nil, nil)
		return nil, errors.New("Не удалось загрузить отделы")
	}
	return departments, nil
}

func (s *departmentService) GetByID(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("Отдел не найден")
		}
		s.errors.Record(ctx, err, "/api/departments", "GetDepartment", nil, nil)
		return nil, errors.New("Не удалось загрузить отдел")
	}
	return dept, nil
}

func (s *departmentService) Roles(ctx context.Context, id uuid.UUID) ([]model.Role, error) {
	roles, err := s.roles.ListByDepartment(ctx, id)
	if err != nil {
		s.errors.Record(ctx, err, "/api/departments", "DepartmentRoles", nil, nil)
		return nil, errors.New("Не удалось загрузить роли отдела")
	}
	return roles, nil
}

// Create inserts the department and assigns the given roles to it in one
// transaction. A failed role assignment rolls the department back too.
func (s *departmentService) Create(ctx context.Context, actorID uuid.UUID, req CreateDepartmentRequest) (*model.Department, error) {
	name := strings.TrimSpace(req.Name)
	if len(name) < 2 {
		return nil, errors.New("Название должно содержать минимум 2 символа")
	}

	roleIDs, err := parseUUIDs(req.RoleIDs)
	if err != nil {
		return nil, errors.New("Некорректная роль")
	}

	dept := &model.Department{
		Name:        name,
		Description: req.Description,
		IsActive:    true,
	}
	if req.Color != "" {
		dept.Color = req.Color
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.departments.Create(txCtx, dept); err != nil {
			return err
		}
		if err := s.roles.AssignToDepartment(txCtx, dept.ID, roleIDs); err != nil {
			return err
		}
		return s.audits.Log(txCtx, newAuditLog(&actorID, model.ActionCreateDepartment, model.EntityDepartment, dept.ID.String(), map[string]interface{}{
			"name": dept.Name,
		}))
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.New("Отдел с таким названием уже существует")
		}
		s.errors.Record(ctx, err, "/api/departments", "CreateDepartment", &actorID, nil)
		return nil, errors.New("Не удалось создать отдел")
	}

	return s.departments.GetByID(ctx, dept.ID)
}

// Update applies the field changes and, when a role list is given, replaces
// the department's role set with exactly that list.
func (s *departmentService) Update(ctx context.Context, actorID, id uuid.UUID, req UpdateDepartmentRequest) (*model.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("Отдел не найден")
		}
		s.errors.Record(ctx, err, "/api/departments", "UpdateDepartment", &actorID, nil)
		return nil, errors.New("Не удалось обновить отдел")
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len(name) < 2 {
			return nil, errors.New("Название должно содержать минимум 2 символа")
		}
		fields["name"] = name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Color != nil {
		fields["color"] = *req.Color
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	var roleIDs []uuid.UUID
	if req.RoleIDs != nil {
		roleIDs, err = parseUUIDs(req.RoleIDs)
		if err != nil {
			return nil, errors.New("Некорректная роль")
		}
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if len(fields) > 0 {
			if err := s.departments.UpdateFields(txCtx, id, fields); err != nil {
				return err
			}
		}
		if req.RoleIDs != nil {
			current, err := s.roles.ListByDepartment(txCtx, id)
			if err != nil {
				return err
			}
			keep := make(map[uuid.UUID]bool, len(roleIDs))
			for _, rid := range roleIDs {
				keep[rid] = true
			}
			for _, role := range current {
				if !keep[role.ID] {
					if err := s.roles.SetDepartment(txCtx, role.ID, nil); err != nil {
						return err
					}
				}
			}
			if err := s.roles.AssignToDepartment(txCtx, id, roleIDs); err != nil {
				return err
			}
		}
		return s.audits.Log(txCtx, newAuditLog(&actorID, model.ActionUpdateDepartment, model.EntityDepartment, id.String(), map[string]interface{}{
			"name": dept.Name,
		}))
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.New("Отдел с таким названием уже существует")
		}
		s.errors.Record(ctx, err, "/api/departments", "UpdateDepartment", &actorID, nil)
		return nil, errors.New("Не удалось обновить отдел")
	}

	return s.departments.GetByID(ctx, id)
}

// Delete removes a department. Departments with assigned users are rejected,
// system departments require the acting admin's password, and roles still
// pointing at it are detached inside the same transaction.
func (s *departmentService) Delete(ctx context.Context, actorID, id uuid.UUID, req DeleteDepartmentRequest, meta RequestMeta) error {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("Отдел не найден")
		}
		s.errors.Record(ctx, err, "/api/departments", "DeleteDepartment", &actorID, nil)
		return errors.New("Не удалось удалить отдел")
	}

	count, err := s.users.CountByDepartment(ctx, id)
	if err != nil {
		s.errors.Record(ctx, err, "/api/departments", "DeleteDepartment", &actorID, nil)
		return errors.New("Не удалось удалить отдел")
	}
	if count > 0 {
		return errors.New("Нельзя удалить отдел, в котором есть пользователи")
	}

	if dept.IsSystem || req.Password != "" {
		if err := s.verifyActorPassword(ctx, actorID, req.Password); err != nil {
			return err
		}
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		roles, err := s.roles.ListByDepartment(txCtx, id)
		if err != nil {
			return err
		}
		for _, role := range roles {
			if err := s.roles.SetDepartment(txCtx, role.ID, nil); err != nil {
				return err
			}
		}
		if err := s.departments.Delete(txCtx, id); err != nil {
			return err
		}
		return s.audits.Log(txCtx, newAuditLog(&actorID, model.ActionDeleteDepartment, model.EntityDepartment, id.String(), map[string]interface{}{
			"name": dept.Name,
		}))
	})
	if err != nil {
		s.errors.Record(ctx, err, "/api/departments", "DeleteDepartment", &actorID, nil)
		return errors.New("Не удалось удалить отдел")
	}

	event := &model.SecurityEvent{
		UserID:     &actorID,
		EventType:  model.EventRecordDelete,
		Severity:   model.SeverityWarning,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		EntityType: model.EntityDepartment,
		EntityID:   &id,
	}
	if err := s.security.LogEvent(ctx, event); err != nil {
		s.errors.Record(ctx, err, "/api/departments", "DeleteDepartment", &actorID, nil)
	}

	return nil
}

func (s *departmentService) verifyActorPassword(ctx context.Context, actorID uuid.UUID, password string) error {
	if password == "" {
		return errors.New("Для этого действия требуется пароль")
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return errors.New("Не авторизован")
	}
	if !actor.CheckPassword(password) {
		return errors.New("Неверный пароль администратора")
	}
	return nil
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
