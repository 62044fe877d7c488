package handler

import (
	"net/http"

	"merchcrm/internal/middleware"
	"merchcrm/internal/model"
	"merchcrm/internal/service"
	"merchcrm/pkg/response"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	settingsService service.SettingsService
}

// NewSettingsHandler sets up the routing dependencies for settings endpoints
func NewSettingsHandler(settingsService service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *SettingsHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Branding is readable without a session so the login screen can render it
	router.GET("/settings/branding", h.GetBranding)

	settings := router.Group("/settings", middleware.RequireAuth(), middleware.RequireAdmin())
	{
		settings.PUT("/branding", h.UpdateBranding)
		settings.GET("/maintenance", h.GetMaintenance)
		settings.PUT("/maintenance", h.SetMaintenance)
	}
}

// GetBranding returns branding settings, defaults if never saved
// @Summary      Get branding
// @Tags         settings
// @Produce      json
// @Success      200  {object}  response.Response{data=model.BrandingSettings}
// @Router       /settings/branding [get]
func (h *SettingsHandler) GetBranding(c *gin.Context) {
	branding, err := h.settingsService.GetBranding(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(branding))
}

// UpdateBranding replaces the branding settings object
// @Summary      Update branding
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      model.BrandingSettings  true  "Branding"
// @Success      200      {object}  response.Response{data=model.BrandingSettings}
// @Failure      400      {object}  response.Response
// @Router       /settings/branding [put]
func (h *SettingsHandler) UpdateBranding(c *gin.Context) {
	actorID, _ := middleware.UserID(c)

	var branding model.BrandingSettings
	if err := c.ShouldBindJSON(&branding); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный запрос"))
		return
	}

	saved, err := h.settingsService.UpdateBranding(c.Request.Context(), actorID, branding)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(saved))
}

// GetMaintenance returns the maintenance switch state
// @Summary      Get maintenance mode
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.MaintenanceState}
// @Router       /settings/maintenance [get]
func (h *SettingsHandler) GetMaintenance(c *gin.Context) {
	state, err := h.settingsService.GetMaintenance(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(state))
}

// SetMaintenance flips the maintenance switch
// @Summary      Set maintenance mode
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.MaintenanceState  true  "Desired state"
// @Success      200      {object}  response.Response{data=service.MaintenanceState}
// @Failure      400      {object}  response.Response
// @Router       /settings/maintenance [put]
func (h *SettingsHandler) SetMaintenance(c *gin.Context) {
	actorID, _ := middleware.UserID(c)

	var state service.MaintenanceState
	if err := c.ShouldBindJSON(&state); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный запрос"))
		return
	}

	saved, err := h.settingsService.SetMaintenance(c.Request.Context(), actorID, state, requestMeta(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(saved))
}
