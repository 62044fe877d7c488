package handler

import (
	"net/http"

	"merchcrm/internal/middleware"
	"merchcrm/internal/service"
	"merchcrm/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DepartmentHandler struct {
	departmentService service.DepartmentService
}

// NewDepartmentHandler sets up the routing dependencies for department endpoints
func NewDepartmentHandler(departmentService service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *DepartmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	departments := router.Group("/departments", middleware.RequireAuth())
	{
		departments.GET("", middleware.RequirePermission("users", "view"), h.ListDepartments)
		departments.GET("/:id", middleware.RequirePermission("users", "view"), h.GetDepartment)
		departments.GET("/:id/roles", middleware.RequirePermission("users", "view"), h.DepartmentRoles)
		departments.POST("", middleware.RequireAdmin(), h.CreateDepartment)
		departments.PUT("/:id", middleware.RequireAdmin(), h.UpdateDepartment)
		departments.DELETE("/:id", middleware.RequireAdmin(), h.DeleteDepartment)
	}
}

// ListDepartments returns every department
// @Summary      List departments
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Department}
// @Router       /departments [get]
func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	departments, err := h.departmentService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(departments))
}

// GetDepartment returns one department by id
// @Summary      Get department
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Department ID"
// @Success      200  {object}  response.Response{data=model.Department}
// @Failure      404  {object}  response.Response
// @Router       /departments/{id} [get]
func (h *DepartmentHandler) GetDepartment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный идентификатор"))
		return
	}
	dept, err := h.departmentService.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(dept))
}

// DepartmentRoles lists the roles assigned to a department
// @Summary      Department roles
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Department ID"
// @Success      200  {object}  response.Response{data=[]model.Role}
// @Router       /departments/{id}/roles [get]
func (h *DepartmentHandler) DepartmentRoles(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный идентификатор"))
		return
	}
	roles, err := h.departmentService.Roles(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(roles))
}

// CreateDepartment creates a department and assigns the given roles to it
// @Summary      Create department
// @Tags         departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateDepartmentRequest  true  "New department"
// @Success      201      {object}  response.Response{data=model.Department}
// @Failure      400      {object}  response.Response
// @Router       /departments [post]
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	actorID, _ := middleware.UserID(c)

	var req service.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный запрос"))
		return
	}

	dept, err := h.departmentService.Create(c.Request.Context(), actorID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(dept))
}

// UpdateDepartment applies a partial update, optionally replacing the role set
// @Summary      Update department
// @Tags         departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "Department ID"
// @Param        payload  body      service.UpdateDepartmentRequest  true  "Changed fields"
// @Success      200      {object}  response.Response{data=model.Department}
// @Failure      400      {object}  response.Response
// @Router       /departments/{id} [put]
func (h *DepartmentHandler) UpdateDepartment(c *gin.Context) {
	actorID, _ := middleware.UserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный идентификатор"))
		return
	}

	var req service.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный запрос"))
		return
	}

	dept, err := h.departmentService.Update(c.Request.Context(), actorID, id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(dept))
}

// DeleteDepartment removes a department after the guard checks pass
// @Summary      Delete department
// @Tags         departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true   "Department ID"
// @Param        payload  body      service.DeleteDepartmentRequest  false  "Admin password"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /departments/{id} [delete]
func (h *DepartmentHandler) DeleteDepartment(c *gin.Context) {
	actorID, _ := middleware.UserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный идентификатор"))
		return
	}

	var req service.DeleteDepartmentRequest
	_ = c.ShouldBindJSON(&req) // Body is optional

	if err := h.departmentService.Delete(c.Request.Context(), actorID, id, req, requestMeta(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Отдел удален"}))
}
