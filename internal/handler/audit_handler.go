package handler

import (
	"net/http"
	"strconv"
	"time"

	"merchcrm/internal/middleware"
	"merchcrm/internal/repository"
	"merchcrm/internal/service"
	"merchcrm/pkg/pagination"
	"merchcrm/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuditHandler struct {
	auditService service.AuditService
}

// NewAuditHandler sets up the routing dependencies for audit and security endpoints
func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	audit := router.Group("/audit", middleware.RequireAuth(), middleware.RequireAdmin())
	{
		audit.GET("", h.ListAuditLogs)
		audit.DELETE("", h.ClearAuditLogs)
	}

	security := router.Group("/security", middleware.RequireAuth(), middleware.RequireAdmin())
	{
		security.GET("/events", h.ListSecurityEvents)
		security.GET("/summary", h.SecuritySummary)
		security.DELETE("/failed-logins", h.ClearFailedLogins)
	}

	system := router.Group("/system", middleware.RequireAuth(), middleware.RequireAdmin())
	{
		system.GET("/errors", h.ListSystemErrors)
		system.DELETE("/errors", h.ClearSystemErrors)
	}
}

// parseTimeRange reads optional from/to query parameters in RFC 3339 or
// YYYY-MM-DD form
func parseTimeRange(c *gin.Context) (*time.Time, *time.Time) {
	parse := func(raw string) *time.Time {
		if raw == "" {
			return nil
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return &t
		}
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return &t
		}
		return nil
	}
	return parse(c.Query("from")), parse(c.Query("to"))
}

// ListAuditLogs returns one page of the audit log
// @Summary      List audit logs
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        page         query     int     false  "Page number"
// @Param        limit        query     int     false  "Page size"
// @Param        search       query     string  false  "Action substring"
// @Param        user_id      query     string  false  "Filter by acting user"
// @Param        entity_type  query     string  false  "Filter by entity type"
// @Param        from         query     string  false  "Period start"
// @Param        to           query     string  false  "Period end"
// @Success      200          {object}  response.Paginated{data=[]model.AuditLog}
// @Router       /audit [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	filter := repository.AuditFilter{
		Search:     c.Query("search"),
		EntityType: c.Query("entity_type"),
	}
	if raw := c.Query("user_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.UserID = &id
		}
	}
	filter.From, filter.To = parseTimeRange(c)

	logs, total, err := h.auditService.ListAuditLogs(c.Request.Context(), params.Page, params.Limit, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.List(logs, total, params.Page, params.Limit))
}

// ClearAuditLogs wipes the audit log, leaving a record of the wipe itself
// @Summary      Clear audit logs
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /audit [delete]
func (h *AuditHandler) ClearAuditLogs(c *gin.Context) {
	actorID, _ := middleware.UserID(c)
	if err := h.auditService.ClearAuditLogs(c.Request.Context(), actorID); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Логи аудита очищены"}))
}

// ListSecurityEvents returns one page of security events
// @Summary      List security events
// @Tags         security
// @Produce      json
// @Security     BearerAuth
// @Param        page        query     int     false  "Page number"
// @Param        limit       query     int     false  "Page size"
// @Param        event_type  query     string  false  "Filter by event type"
// @Param        severity    query     string  false  "Filter by severity"
// @Success      200         {object}  response.Paginated{data=[]model.SecurityEvent}
// @Router       /security/events [get]
func (h *AuditHandler) ListSecurityEvents(c *gin.Context) {
	params := pagination.Parse(c)

	filter := repository.SecurityEventFilter{
		EventType: c.Query("event_type"),
		Severity:  c.Query("severity"),
	}
	filter.From, filter.To = parseTimeRange(c)

	events, total, err := h.auditService.ListSecurityEvents(c.Request.Context(), params.Page, params.Limit, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.List(events, total, params.Page, params.Limit))
}

// SecuritySummary returns the 24-hour security activity digest
// @Summary      Security summary
// @Tags         security
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.SecuritySummary}
// @Router       /security/summary [get]
func (h *AuditHandler) SecuritySummary(c *gin.Context) {
	summary, err := h.auditService.SecuritySummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(summary))
}

// ClearFailedLogins deletes recorded failed login attempts
// @Summary      Clear failed logins
// @Tags         security
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /security/failed-logins [delete]
func (h *AuditHandler) ClearFailedLogins(c *gin.Context) {
	actorID, _ := middleware.UserID(c)
	if err := h.auditService.ClearFailedLogins(c.Request.Context(), actorID); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Неудачные попытки входа очищены"}))
}

// ListSystemErrors returns recent system errors
// @Summary      List system errors
// @Tags         system
// @Produce      json
// @Security     BearerAuth
// @Param        hours  query     int  false  "Look-back window in hours, default 24"
// @Param        limit  query     int  false  "Maximum rows, default 100"
// @Success      200    {object}  response.Response{data=[]model.SystemError}
// @Router       /system/errors [get]
func (h *AuditHandler) ListSystemErrors(c *gin.Context) {
	hours, _ := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if hours <= 0 {
		hours = 24
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	errs, err := h.auditService.ListSystemErrors(c.Request.Context(), since, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(errs))
}

// ClearSystemErrors wipes the system error log
// @Summary      Clear system errors
// @Tags         system
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /system/errors [delete]
func (h *AuditHandler) ClearSystemErrors(c *gin.Context) {
	actorID, _ := middleware.UserID(c)
	if err := h.auditService.ClearSystemErrors(c.Request.Context(), actorID); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Системные ошибки очищены"}))
}
