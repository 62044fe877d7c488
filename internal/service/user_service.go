package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"merchcrm/internal/errlog"
	"merchcrm/internal/middleware"
	"merchcrm/internal/model"
	"merchcrm/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// --- DTOs ---

type CreateUserRequest struct {
	Name         string  `json:"name" binding:"required"`
	Email        string  `json:"email" binding:"required"`
	Password     string  `json:"password" binding:"required"`
	Phone        string  `json:"phone"`
	Telegram     string  `json:"telegram"`
	RoleID       string  `json:"role_id" binding:"required"`
	DepartmentID *string `json:"department_id"`
}

// UpdateUserRequest carries a partial update. Nil pointer fields are left
// untouched; an empty DepartmentID string clears the assignment.
type UpdateUserRequest struct {
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	Password     *string `json:"password"`
	Phone        *string `json:"phone"`
	Avatar       *string `json:"avatar"`
	Telegram     *string `json:"telegram"`
	RoleID       *string `json:"role_id"`
	DepartmentID *string `json:"department_id"`
	IsActive     *bool   `json:"is_active"`
}

type DeleteUserRequest struct {
	Password string `json:"password"`
}

// UserService implements the administrative user operations
type UserService interface {
	List(ctx context.Context, page, limit int, search string) ([]model.User, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	Create(ctx context.Context, actorID uuid.UUID, req CreateUserRequest) (*model.User, error)
	Update(ctx context.Context, actorID, id uuid.UUID, req UpdateUserRequest) (*model.User, error)
	Delete(ctx context.Context, actorID, id uuid.UUID, req DeleteUserRequest, meta RequestMeta) error
}

type userService struct {
	users    repository.UserRepository
	roles    repository.RoleRepository
	audits   repository.AuditRepository
	security repository.SecurityRepository
	tx       repository.TransactionManager
	errors   *errlog.Recorder
}

// NewUserService returns a new instance of UserService
func NewUserService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	audits repository.AuditRepository,
	security repository.SecurityRepository,
	tx repository.TransactionManager,
	rec *errlog.Recorder,
) UserService {
	return &userService{users: users, roles: roles, audits: audits, security: security, tx: tx, errors: rec}
}

func (s *userService) List(ctx context.Context, page, limit int, search string) ([]model.User, int64, error) {
	users, total, err := s.users.List(ctx, page, limit, search)
	if err != nil {
		s.errors.Record(ctx, err, "/api/users", "ListUsers", nil, nil)
		return nil, 0, errors.New("Не удалось загрузить пользователей")
	}
	return users, total, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("Пользователь не найден")
		}
		s.errors.Record(ctx, err, "/api/users", "GetUser", nil, nil)
		return nil, errors.New("Не удалось загрузить пользователя")
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, actorID uuid.UUID, req CreateUserRequest) (*model.User, error) {
	if len(strings.TrimSpace(req.Name)) < 2 {
		return nil, errors.New("Имя должно содержать минимум 2 символа")
	}
	if !emailPattern.MatchString(req.Email) {
		return nil, errors.New("Некорректный email")
	}
	if len(req.Password) < 6 {
		return nil, errors.New("Пароль должен содержать минимум 6 символов")
	}

	roleID, err := uuid.Parse(req.RoleID)
	if err != nil {
		return nil, errors.New("Некорректная роль")
	}
	if _, err := s.roles.GetByID(ctx, roleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("Роль не найдена")
		}
		s.errors.Record(ctx, err, "/api/users", "CreateUser", &actorID, nil)
		return nil, errors.New("Не удалось создать пользователя")
	}

	var departmentID *uuid.UUID
	if req.DepartmentID != nil && *req.DepartmentID != "" {
		id, err := uuid.Parse(*req.DepartmentID)
		if err != nil {
			return nil, errors.New("Некорректный отдел")
		}
		departmentID = &id
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.New("Пользователь с таким email уже существует")
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(req.Email),
		Phone:        req.Phone,
		Telegram:     req.Telegram,
		RoleID:       &roleID,
		DepartmentID: departmentID,
		IsActive:     true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		s.errors.Record(ctx, err, "/api/users", "CreateUser", &actorID, nil)
		return nil, errors.New("Не удалось создать пользователя")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.users.Create(txCtx, user); err != nil {
			return err
		}
		return s.audits.Log(txCtx, s.audit(actorID, model.ActionCreateUser, model.EntityUser, user.ID.String(), map[string]interface{}{
			"name":  user.Name,
			"email": user.Email,
		}))
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.New("Пользователь с таким email уже существует")
		}
		s.errors.Record(ctx, err, "/api/users", "CreateUser", &actorID, nil)
		return nil, errors.New("Не удалось создать пользователя")
	}

	return s.users.GetByID(ctx, user.ID)
}

func (s *userService) Update(ctx context.Context, actorID, id uuid.UUID, req UpdateUserRequest) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("Пользователь не найден")
		}
		s.errors.Record(ctx, err, "/api/users", "UpdateUser", &actorID, nil)
		return nil, errors.New("Не удалось обновить пользователя")
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		if len(strings.TrimSpace(*req.Name)) < 2 {
			return nil, errors.New("Имя должно содержать минимум 2 символа")
		}
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		if !emailPattern.MatchString(*req.Email) {
			return nil, errors.New("Некорректный email")
		}
		fields["email"] = strings.ToLower(*req.Email)
	}
	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < 6 {
			return nil, errors.New("Пароль должен содержать минимум 6 символов")
		}
		tmp := model.User{}
		if err := tmp.SetPassword(*req.Password); err != nil {
			s.errors.Record(ctx, err, "/api/users", "UpdateUser", &actorID, nil)
			return nil, errors.New("Не удалось обновить пользователя")
		}
		fields["password_hash"] = tmp.PasswordHash
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.Avatar != nil {
		fields["avatar"] = *req.Avatar
	}
	if req.Telegram != nil {
		fields["telegram"] = *req.Telegram
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	roleChanged := false
	if req.RoleID != nil && *req.RoleID != "" {
		roleID, err := uuid.Parse(*req.RoleID)
		if err != nil {
			return nil, errors.New("Некорректная роль")
		}
		if _, err := s.roles.GetByID(ctx, roleID); err != nil {
			return nil, errors.New("Роль не найдена")
		}
		if user.RoleID == nil || *user.RoleID != roleID {
			roleChanged = true
		}
		fields["role_id"] = roleID
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
		return user, nil
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.users.UpdateFields(txCtx, id, fields); err != nil {
			return err
		}
		return s.audits.Log(txCtx, s.audit(actorID, model.ActionUpdateUser, model.EntityUser, id.String(), map[string]interface{}{
			"name": user.Name,
		}))
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.New("Пользователь с таким email уже существует")
		}
		s.errors.Record(ctx, err, "/api/users", "UpdateUser", &actorID, nil)
		return nil, errors.New("Не удалось обновить пользователя")
	}

	if roleChanged {
		s.logEvent(ctx, actorID, model.EventRoleChange, model.SeverityWarning, model.EntityUser, &id, map[string]interface{}{
			"user": user.Name,
		})
	}

	return s.users.GetByID(ctx, id)
}

// Delete removes a user. Deleting oneself is rejected. Protected accounts
// require the acting admin to re-enter their own password, and any supplied
// password is verified even for unprotected targets.
func (s *userService) Delete(ctx context.Context, actorID, id uuid.UUID, req DeleteUserRequest, meta RequestMeta) error {
	if actorID == id {
		return errors.New("Нельзя удалить самого себя")
	}

	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("Пользователь не найден")
		}
		s.errors.Record(ctx, err, "/api/users", "DeleteUser", &actorID, nil)
		return errors.New("Не удалось удалить пользователя")
	}

	if target.IsSystem || req.Password != "" {
		if err := s.verifyActorPassword(ctx, actorID, req.Password); err != nil {
			return err
		}
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.users.Delete(txCtx, id); err != nil {
			return err
		}
		return s.audits.Log(txCtx, s.audit(actorID, model.ActionDeleteUser, model.EntityUser, id.String(), map[string]interface{}{
			"name":  target.Name,
			"email": target.Email,
		}))
	})
	if err != nil {
		s.errors.Record(ctx, err, "/api/users", "DeleteUser", &actorID, nil)
		return errors.New("Не удалось удалить пользователя")
	}

	event := &model.SecurityEvent{
		UserID:     &actorID,
		EventType:  model.EventRecordDelete,
		Severity:   model.SeverityWarning,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		EntityType: model.EntityUser,
		EntityID:   &id,
	}
	if err := s.security.LogEvent(ctx, event); err != nil {
		s.errors.Record(ctx, err, "/api/users", "DeleteUser", &actorID, nil)
	}

	middleware.ClearPermissionCache("")
	return nil
}

// verifyActorPassword re-authenticates the acting admin before a protected
// delete goes through
func (s *userService) verifyActorPassword(ctx context.Context, actorID uuid.UUID, password string) error {
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

func (s *userService) audit(actorID uuid.UUID, action, entityType, entityID string, details map[string]interface{}) *model.AuditLog {
	return newAuditLog(&actorID, action, entityType, entityID, details)
}

func (s *userService) logEvent(ctx context.Context, actorID uuid.UUID, eventType, severity, entityType string, entityID *uuid.UUID, details map[string]interface{}) {
	var payload datatypes.JSON
	if details != nil {
		raw, _ := json.Marshal(details)
		payload = datatypes.JSON(raw)
	}
	event := &model.SecurityEvent{
		UserID:     &actorID,
		EventType:  eventType,
		Severity:   severity,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    payload,
	}
	if err := s.security.LogEvent(ctx, event); err != nil {
		s.errors.Record(ctx, err, "/api/security", "logEvent", &actorID, nil)
	}
}

// newAuditLog builds an audit entry with its details serialized to jsonb
func newAuditLog(userID *uuid.UUID, action, entityType, entityID string, details map[string]interface{}) *model.AuditLog {
	var payload datatypes.JSON
	if details != nil {
		raw, _ := json.Marshal(details)
		payload = datatypes.JSON(raw)
	}
	return &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    payload,
	}
}

// isUniqueViolation detects duplicate-key failures from the database
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "SQLSTATE 23505")
}
