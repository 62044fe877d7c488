package service

import (
	"context"
	"errors"
	"strings"

	"merchcrm/internal/errlog"
	"merchcrm/internal/middleware"
	"merchcrm/internal/model"
	"merchcrm/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name         string                 `json:"name" binding:"required"`
	Description  string                 `json:"description"`
	Color        string                 `json:"color"`
	DepartmentID *string                `json:"department_id"`
	Permissions  model.PermissionMatrix `json:"permissions"`
}

type UpdateRoleRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	Color        *string `json:"color"`
	DepartmentID *string `json:"department_id"`
}

// UpdatePermissionsRequest replaces the role's matrix wholesale
type UpdatePermissionsRequest struct {
	Permissions model.PermissionMatrix `json:"permissions" binding:"required"`
}

type DeleteRoleRequest struct {
	Password string `json:"password"`
}

// RoleService implements role management and the permission matrix
type RoleService interface {
	List(ctx context.Context) ([]model.Role, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	Create(ctx context.Context, actorID uuid.UUID, req CreateRoleRequest) (*model.Role, error)
	Update(ctx context.Context, actorID, id uuid.UUID, req UpdateRoleRequest) (*model.Role, error)
	UpdatePermissions(ctx context.Context, actorID, id uuid.UUID, req UpdatePermissionsRequest) (*model.Role, error)
	Delete(ctx context.Context, actorID, id uuid.UUID, req DeleteRoleRequest, meta RequestMeta) error
}

type roleService struct {
	roles    repository.RoleRepository
	users    repository.UserRepository
	audits   repository.AuditRepository
	security repository.SecurityRepository
	tx       repository.TransactionManager
	errors   *errlog.Recorder
}

// NewRoleService returns a new instance of RoleService
func NewRoleService(
	roles repository.RoleRepository,
	users repository.UserRepository,
	audits repository.AuditRepository,
	security repository.SecurityRepository,
	tx repository.TransactionManager,
	rec *errlog.Recorder,
) RoleService {
	return &roleService{roles: roles, users: users, audits: audits, security: security, tx: tx, errors: rec}
}

func (s *roleService) List(ctx context.Context) ([]model.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		s.errors.Record(ctx, err, "/api/roles", "ListRoles", nil, nil)
		return nil, errors.New("Не удалось загрузить роли")
	}
	return roles, nil
}

func (s *roleService) GetByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("Роль не найдена")
		}
		s.errors.Record(ctx, err, "/api/roles", "GetRole", nil, nil)
		return nil, errors.New("Не удалось загрузить роль")
	}
	return role, nil
}

func (s *roleService) Create(ctx context.Context, actorID uuid.UUID, req CreateRoleRequest) (*model.Role, error) {
	name := strings.TrimSpace(req.Name)
	if len(name) < 2 {
		return nil, errors.New("Название должно содержать минимум 2 символа")
	}

	permissions := req.Permissions
	if permissions == nil {
		permissions = model.EmptyPermissionMatrix()
	}
	if err := permissions.Validate(); err != nil {
		return nil, err
	}

	var departmentID *uuid.UUID
	if req.DepartmentID != nil && *req.DepartmentID != "" {
		id, err := uuid.Parse(*req.DepartmentID)
		if err != nil {
			return nil, errors.New("Некорректный отдел")
		}
		departmentID = &id
	}

	role := &model.Role{
		Name:         name,
		Description:  req.Description,
		Color:        req.Color,
		DepartmentID: departmentID,
		Permissions:  permissions,
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roles.Create(txCtx, role); err != nil {
			return err
		}
		return s.audits.Log(txCtx, newAuditLog(&actorID, model.ActionCreateRole, model.EntityRole, role.ID.String(), map[string]interface{}{
			"name": role.Name,
		}))
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.New("Роль с таким названием уже существует")
		}
		s.errors.Record(ctx, err, "/api/roles", "CreateRole", &actorID, nil)
		return nil, errors.New("Не удалось создать роль")
	}

	return s.roles.GetByID(ctx, role.ID)
}

func (s *roleService) Update(ctx context.Context, actorID, id uuid.UUID, req UpdateRoleRequest) (*model.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("Роль не найдена")
		}
		s.errors.Record(ctx, err, "/api/roles", "UpdateRole", &actorID, nil)
		return nil, errors.New("Не удалось обновить роль")
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len(name) < 2 {
			return nil, errors.New("Название должно содержать минимум 2 символа")
		}
		if role.IsSystem && name != role.Name {
			return nil, errors.New("Системную роль нельзя переименовать")
		}
		fields["name"] = name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Color != nil {
		fields["color"] = *req.Color
	}
	if req.DepartmentID != nil {
		if *req.DepartmentID == "" {
			fields["department_id"] = nil
		} else {
			deptID, err := uuid.Parse(*req.DepartmentID)
			if err != nil {
				return nil, errors.New("Некорректный отдел")
			}
			fields["department_id"] = deptID
		}
	}

	if len(fields) == 0 {
		return role, nil
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roles.UpdateFields(txCtx, id, fields); err != nil {
			return err
		}
		return s.audits.Log(txCtx, newAuditLog(&actorID, model.ActionUpdateRole, model.EntityRole, id.String(), map[string]interface{}{
			"name": role.Name,
		}))
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.New("Роль с таким названием уже существует")
		}
		s.errors.Record(ctx, err, "/api/roles", "UpdateRole", &actorID, nil)
		return nil, errors.New("Не удалось обновить роль")
	}

	middleware.ClearPermissionCache(role.Name)
	return s.roles.GetByID(ctx, id)
}

// UpdatePermissions replaces the whole matrix; partial merges are never done
func (s *roleService) UpdatePermissions(ctx context.Context, actorID, id uuid.UUID, req UpdatePermissionsRequest) (*model.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("Роль не найдена")
		}
		s.errors.Record(ctx, err, "/api/roles", "UpdateRolePermissions", &actorID, nil)
		return nil, errors.New("Не удалось обновить права роли")
	}

	if err := req.Permissions.Validate(); err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roles.UpdateFields(txCtx, id, map[string]interface{}{"permissions": req.Permissions}); err != nil {
			return err
		}
		return s.audits.Log(txCtx, newAuditLog(&actorID, model.ActionUpdateRolePerms, model.EntityRole, id.String(), map[string]interface{}{
			"name": role.Name,
		}))
	})
	if err != nil {
		s.errors.Record(ctx, err, "/api/roles", "UpdateRolePermissions", &actorID, nil)
		return nil, errors.New("Не удалось обновить права роли")
	}

	s.logPermissionChange(ctx, actorID, id, role.Name)
	middleware.ClearPermissionCache(role.Name)
	return s.roles.GetByID(ctx, id)
}

// Delete removes a role. System roles are never deletable, roles still
// assigned to users are rejected, and a supplied password is verified
// against the acting admin's own hash.
func (s *roleService) Delete(ctx context.Context, actorID, id uuid.UUID, req DeleteRoleRequest, meta RequestMeta) error {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("Роль не найдена")
		}
		s.errors.Record(ctx, err, "/api/roles", "DeleteRole", &actorID, nil)
		return errors.New("Не удалось удалить роль")
	}

	if role.IsSystem {
		return errors.New("Системную роль нельзя удалить")
	}

	count, err := s.users.CountByRole(ctx, id)
	if err != nil {
		s.errors.Record(ctx, err, "/api/roles", "DeleteRole", &actorID, nil)
		return errors.New("Не удалось удалить роль")
	}
	if count > 0 {
		return errors.New("Нельзя удалить роль, которая назначена пользователям")
	}

	if req.Password != "" {
		if err := s.verifyActorPassword(ctx, actorID, req.Password); err != nil {
			return err
		}
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roles.Delete(txCtx, id); err != nil {
			return err
		}
		return s.audits.Log(txCtx, newAuditLog(&actorID, model.ActionDeleteRole, model.EntityRole, id.String(), map[string]interface{}{
			"name": role.Name,
		}))
	})
	if err != nil {
		s.errors.Record(ctx, err, "/api/roles", "DeleteRole", &actorID, nil)
		return errors.New("Не удалось удалить роль")
	}

	event := &model.SecurityEvent{
		UserID:     &actorID,
		EventType:  model.EventRecordDelete,
		Severity:   model.SeverityWarning,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		EntityType: model.EntityRole,
		EntityID:   &id,
	}
	if err := s.security.LogEvent(ctx, event); err != nil {
		s.errors.Record(ctx, err, "/api/roles", "DeleteRole", &actorID, nil)
	}

	middleware.ClearPermissionCache(role.Name)
	return nil
}

func (s *roleService) verifyActorPassword(ctx context.Context, actorID uuid.UUID, password string) error {
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

func (s *roleService) logPermissionChange(ctx context.Context, actorID, roleID uuid.UUID, roleName string) {
	event := &model.SecurityEvent{
		UserID:     &actorID,
		EventType:  model.EventPermissionChange,
		Severity:   model.SeverityWarning,
		EntityType: model.EntityRole,
		EntityID:   &roleID,
	}
	if err := s.security.LogEvent(ctx, event); err != nil {
		s.errors.Record(ctx, err, "/api/roles", "logPermissionChange", &actorID, nil)
	}
}
