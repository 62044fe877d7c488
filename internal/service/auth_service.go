package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"merchcrm/internal/errlog"
	"merchcrm/internal/model"
	"merchcrm/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// --- DTOs ---

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// RequestMeta carries transport-level details into security events
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// AuthService issues sessions and resolves the current actor
type AuthService interface {
	Login(ctx context.Context, req LoginRequest, meta RequestMeta) (*TokenResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, meta RequestMeta)
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest, meta RequestMeta) error
	TrackActivity(ctx context.Context, userID uuid.UUID)
}

type authService struct {
	users    repository.UserRepository
	security repository.SecurityRepository
	errors   *errlog.Recorder
	secret   []byte
}

// NewAuthService returns a new instance of AuthService
func NewAuthService(users repository.UserRepository, security repository.SecurityRepository, rec *errlog.Recorder, secret []byte) AuthService {
	return &authService{users: users, security: security, errors: rec, secret: secret}
}

func (s *authService) Login(ctx context.Context, req LoginRequest, meta RequestMeta) (*TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil || !user.CheckPassword(req.Password) {
		s.recordEvent(ctx, nil, model.EventLoginFailed, model.SeverityWarning, meta, map[string]interface{}{
			"email": req.Email,
		})
		return nil, errors.New("Неверный email или пароль")
	}

	if !user.IsActive {
		s.recordEvent(ctx, &user.ID, model.EventLoginFailed, model.SeverityWarning, meta, map[string]interface{}{
			"email":  req.Email,
			"reason": "inactive",
		})
		return nil, errors.New("Учетная запись отключена")
	}

	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  roleName,
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	})
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		s.errors.Record(ctx, err, "/api/login", "Login", &user.ID, nil)
		return nil, errors.New("Не удалось выполнить вход")
	}

	s.recordEvent(ctx, &user.ID, model.EventLoginSuccess, model.SeverityInfo, meta, nil)
	_ = s.users.TouchLastActive(ctx, user.ID)

	return &TokenResponse{Token: tokenString, User: user}, nil
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID, meta RequestMeta) {
	s.recordEvent(ctx, &userID, model.EventLogout, model.SeverityInfo, meta, nil)
}

func (s *authService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("Не авторизован")
		}
		s.errors.Record(ctx, err, "/api/me", "GetCurrentUser", &userID, nil)
		return nil, errors.New("Не удалось загрузить текущего пользователя")
	}
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest, meta RequestMeta) error {
	if len(req.NewPassword) < 6 {
		return errors.New("Пароль должен содержать минимум 6 символов")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return errors.New("Не авторизован")
	}
	if !user.CheckPassword(req.CurrentPassword) {
		return errors.New("Неверный текущий пароль")
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		s.errors.Record(ctx, err, "/api/me/password", "ChangePassword", &userID, nil)
		return errors.New("Не удалось изменить пароль")
	}
	if err := s.users.UpdateFields(ctx, userID, map[string]interface{}{"password_hash": user.PasswordHash}); err != nil {
		s.errors.Record(ctx, err, "/api/me/password", "ChangePassword", &userID, nil)
		return errors.New("Не удалось изменить пароль")
	}

	s.recordEvent(ctx, &userID, model.EventPasswordChange, model.SeverityWarning, meta, nil)
	return nil
}

// TrackActivity updates the actor's last-seen timestamp, best effort
func (s *authService) TrackActivity(ctx context.Context, userID uuid.UUID) {
	_ = s.users.TouchLastActive(ctx, userID)
}

func (s *authService) recordEvent(ctx context.Context, userID *uuid.UUID, eventType, severity string, meta RequestMeta, details map[string]interface{}) {
	var payload datatypes.JSON
	if details != nil {
		raw, _ := json.Marshal(details)
		payload = datatypes.JSON(raw)
	}
	event := &model.SecurityEvent{
		UserID:    userID,
		EventType: eventType,
		Severity:  severity,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Details:   payload,
	}
	if err := s.security.LogEvent(ctx, event); err != nil {
		s.errors.Record(ctx, err, "/api/security", "recordEvent", userID, nil)
	}
}
