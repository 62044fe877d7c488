package handler

import (
	"net/http"

	"merchcrm/internal/middleware"
	"merchcrm/internal/repository"
	"merchcrm/internal/service"
	"merchcrm/pkg/pagination"
	"merchcrm/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

// NewInventoryHandler sets up the routing dependencies for inventory endpoints
func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/inventory", middleware.RequireAuth())
	{
		inventory.GET("", middleware.RequirePermission("inventory", "view"), h.ListItems)
		inventory.POST("", middleware.RequirePermission("inventory", "create"), h.CreateItem)
		inventory.GET("/locations", middleware.RequirePermission("inventory", "view"), h.ListLocations)
		inventory.GET("/history", middleware.RequirePermission("inventory", "view"), h.History)
		inventory.POST("/transactions", middleware.RequirePermission("inventory", "edit"), h.RecordMovement)
		inventory.POST("/transactions/bulk", middleware.RequirePermission("inventory", "edit"), h.RecordMovements)
	}
}

// ListItems returns one page of stock items
// @Summary      List inventory
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Param        search  query     string  false  "Name or SKU substring"
// @Success      200     {object}  response.Paginated{data=[]model.InventoryItem}
// @Router       /inventory [get]
func (h *InventoryHandler) ListItems(c *gin.Context) {
	params := pagination.Parse(c)
	items, total, err := h.inventoryService.ListItems(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.List(items, total, params.Page, params.Limit))
}

// CreateItem creates a stock item
// @Summary      Create inventory item
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateItemRequest  true  "New item"
// @Success      201      {object}  response.Response{data=model.InventoryItem}
// @Failure      400      {object}  response.Response
// @Router       /inventory [post]
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	actorID, _ := middleware.UserID(c)

	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный запрос"))
		return
	}

	item, err := h.inventoryService.CreateItem(c.Request.Context(), actorID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(item))
}

// ListLocations returns active storage locations
// @Summary      List storage locations
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.StorageLocation}
// @Router       /inventory/locations [get]
func (h *InventoryHandler) ListLocations(c *gin.Context) {
	locations, err := h.inventoryService.ListLocations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(locations))
}

// History returns one page of the movement history
// @Summary      Inventory history
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        page         query     int     false  "Page number"
// @Param        limit        query     int     false  "Page size"
// @Param        item_id      query     string  false  "Filter by item"
// @Param        type         query     string  false  "Filter by movement type"
// @Param        location_id  query     string  false  "Filter by storage location"
// @Param        from         query     string  false  "Period start"
// @Param        to           query     string  false  "Period end"
// @Success      200          {object}  response.Paginated{data=[]model.InventoryTransaction}
// @Router       /inventory/history [get]
func (h *InventoryHandler) History(c *gin.Context) {
	params := pagination.Parse(c)

	filter := repository.HistoryFilter{Type: c.Query("type")}
	if raw := c.Query("item_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.ItemID = &id
		}
	}
	if raw := c.Query("location_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.LocationID = &id
		}
	}
	filter.From, filter.To = parseTimeRange(c)

	history, total, err := h.inventoryService.History(c.Request.Context(), params.Page, params.Limit, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.List(history, total, params.Page, params.Limit))
}

// RecordMovement applies one stock movement
// @Summary      Record stock movement
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.MovementRequest  true  "Movement"
// @Success      201      {object}  response.Response{data=model.InventoryTransaction}
// @Failure      400      {object}  response.Response
// @Router       /inventory/transactions [post]
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	actorID, _ := middleware.UserID(c)

	var req service.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный запрос"))
		return
	}

	tx, err := h.inventoryService.RecordMovement(c.Request.Context(), actorID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(tx))
}

// RecordMovements applies a list of movements atomically
// @Summary      Record stock movements in bulk
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.BulkMovementRequest  true  "Movements"
// @Success      201      {object}  response.Response{data=[]model.InventoryTransaction}
// @Failure      400      {object}  response.Response
// @Router       /inventory/transactions/bulk [post]
func (h *InventoryHandler) RecordMovements(c *gin.Context) {
	actorID, _ := middleware.UserID(c)

	var req service.BulkMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный запрос"))
		return
	}

	txs, err := h.inventoryService.RecordMovements(c.Request.Context(), actorID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(txs))
}
