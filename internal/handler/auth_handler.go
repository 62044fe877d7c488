package handler

import (
	"net/http"

	"merchcrm/internal/middleware"
	"merchcrm/internal/service"
	"merchcrm/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	release     bool
}

// NewAuthHandler sets up the routing dependencies for session endpoints
func NewAuthHandler(authService service.AuthService, release bool) *AuthHandler {
	return &AuthHandler{authService: authService, release: release}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/login", h.Login)
	router.POST("/logout", middleware.RequireAuth(), h.Logout)
	router.GET("/me", middleware.RequireAuth(), h.GetMe)
	router.PUT("/me/password", middleware.RequireAuth(), h.ChangePassword)
}

// requestMeta extracts transport details for security event records
func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// Login authenticates by email and password
// @Summary      Log in
// @Description  Verifies credentials and sets the session cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Неверный email или пароль"))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(err.Error()))
		return
	}

	middleware.SetSessionCookie(c, result.Token, h.release)
	c.JSON(http.StatusOK, response.Success(result))
}

// Logout clears the session cookie
// @Summary      Log out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if userID, ok := middleware.UserID(c); ok {
		h.authService.Logout(c.Request.Context(), userID, requestMeta(c))
	}
	middleware.ClearSessionCookie(c, h.release)
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Вы вышли из системы"}))
}

// GetMe returns the authenticated user
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.User}
// @Failure      401  {object}  response.Response
// @Router       /me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Не авторизован"))
		return
	}

	user, err := h.authService.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(err.Error()))
		return
	}

	h.authService.TrackActivity(c.Request.Context(), userID)
	c.JSON(http.StatusOK, response.Success(user))
}

// ChangePassword updates the caller's own password
// @Summary      Change own password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ChangePasswordRequest  true  "Password change"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /me/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Не авторизован"))
		return
	}

	var req service.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный запрос"))
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), userID, req, requestMeta(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Пароль изменен"}))
}
