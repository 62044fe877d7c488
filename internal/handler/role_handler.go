package handler

import (
	"net/http"

	"merchcrm/internal/middleware"
	"merchcrm/internal/service"
	"merchcrm/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RoleHandler struct {
	roleService service.RoleService
}

// NewRoleHandler sets up the routing dependencies for role endpoints
func NewRoleHandler(roleService service.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/roles", middleware.RequireAuth())
	{
		roles.GET("", middleware.RequirePermission("roles", "view"), h.ListRoles)
		roles.GET("/:id", middleware.RequirePermission("roles", "view"), h.GetRole)
		roles.POST("", middleware.RequireAdmin(), h.CreateRole)
		roles.PUT("/:id", middleware.RequireAdmin(), h.UpdateRole)
		roles.PUT("/:id/permissions", middleware.RequireAdmin(), h.UpdatePermissions)
		roles.DELETE("/:id", middleware.RequireAdmin(), h.DeleteRole)
	}
}

// ListRoles returns every role
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Role}
// @Router       /roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(roles))
}

// GetRole returns one role by id
// @Summary      Get role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  response.Response{data=model.Role}
// @Failure      404  {object}  response.Response
// @Router       /roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный идентификатор"))
		return
	}
	role, err := h.roleService.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(role))
}

// CreateRole creates a role with an optional permission matrix
// @Summary      Create role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRoleRequest  true  "New role"
// @Success      201      {object}  response.Response{data=model.Role}
// @Failure      400      {object}  response.Response
// @Router       /roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	actorID, _ := middleware.UserID(c)

	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный запрос"))
		return
	}

	role, err := h.roleService.Create(c.Request.Context(), actorID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(role))
}

// UpdateRole applies a partial update to a role
// @Summary      Update role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Role ID"
// @Param        payload  body      service.UpdateRoleRequest  true  "Changed fields"
// @Success      200      {object}  response.Response{data=model.Role}
// @Failure      400      {object}  response.Response
// @Router       /roles/{id} [put]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	actorID, _ := middleware.UserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный идентификатор"))
		return
	}

	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный запрос"))
		return
	}

	role, err := h.roleService.Update(c.Request.Context(), actorID, id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(role))
}

// UpdatePermissions replaces the role's permission matrix wholesale
// @Summary      Replace role permissions
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                            true  "Role ID"
// @Param        payload  body      service.UpdatePermissionsRequest  true  "Full permission matrix"
// @Success      200      {object}  response.Response{data=model.Role}
// @Failure      400      {object}  response.Response
// @Router       /roles/{id}/permissions [put]
func (h *RoleHandler) UpdatePermissions(c *gin.Context) {
	actorID, _ := middleware.UserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный идентификатор"))
		return
	}

	var req service.UpdatePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный запрос"))
		return
	}

	role, err := h.roleService.UpdatePermissions(c.Request.Context(), actorID, id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(role))
}

// DeleteRole removes a role after the guard checks pass
// @Summary      Delete role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true   "Role ID"
// @Param        payload  body      service.DeleteRoleRequest  false  "Admin password"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	actorID, _ := middleware.UserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный идентификатор"))
		return
	}

	var req service.DeleteRoleRequest
	_ = c.ShouldBindJSON(&req) // Body is optional

	if err := h.roleService.Delete(c.Request.Context(), actorID, id, req, requestMeta(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Роль удалена"}))
}
