package handler

import (
	"net/http"
	"time"

	"merchcrm/internal/middleware"
	"merchcrm/internal/service"
	"merchcrm/pkg/pagination"
	"merchcrm/pkg/response"

	"github.com/gin-gonic/gin"
)

type FinanceHandler struct {
	financeService service.FinanceService
}

// NewFinanceHandler sets up the routing dependencies for finance endpoints
func NewFinanceHandler(financeService service.FinanceService) *FinanceHandler {
	return &FinanceHandler{financeService: financeService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *FinanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	finance := router.Group("/finance", middleware.RequireAuth(), middleware.RequirePermission("finance", "view"))
	{
		finance.GET("/summary", h.Summary)
		finance.GET("/expenses", h.ListExpenses)
		finance.POST("/expenses", middleware.RequirePermission("finance", "create"), h.CreateExpense)
	}
}

// Summary returns the profit and loss snapshot for a period
// @Summary      Finance summary
// @Tags         finance
// @Produce      json
// @Security     BearerAuth
// @Param        from  query     string  false  "Period start, defaults to 30 days ago"
// @Param        to    query     string  false  "Period end, defaults to now"
// @Success      200   {object}  response.Response{data=service.FinanceSummary}
// @Router       /finance/summary [get]
func (h *FinanceHandler) Summary(c *gin.Context) {
	from, to := parseTimeRange(c)
	if to == nil {
		now := time.Now()
		to = &now
	}
	if from == nil {
		start := to.AddDate(0, 0, -30)
		from = &start
	}

	summary, err := h.financeService.Summary(c.Request.Context(), *from, *to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(summary))
}

// ListExpenses returns one page of expenses
// @Summary      List expenses
// @Tags         finance
// @Produce      json
// @Security     BearerAuth
// @Param        page      query     int     false  "Page number"
// @Param        limit     query     int     false  "Page size"
// @Param        category  query     string  false  "Filter by category"
// @Param        from      query     string  false  "Period start"
// @Param        to        query     string  false  "Period end"
// @Success      200       {object}  response.Paginated{data=[]model.Expense}
// @Router       /finance/expenses [get]
func (h *FinanceHandler) ListExpenses(c *gin.Context) {
	params := pagination.Parse(c)
	from, to := parseTimeRange(c)

	expenses, total, err := h.financeService.ListExpenses(c.Request.Context(), params.Page, params.Limit, c.Query("category"), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.List(expenses, total, params.Page, params.Limit))
}

// CreateExpense records an operating expense
// @Summary      Create expense
// @Tags         finance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateExpenseRequest  true  "Expense"
// @Success      201      {object}  response.Response{data=model.Expense}
// @Failure      400      {object}  response.Response
// @Router       /finance/expenses [post]
func (h *FinanceHandler) CreateExpense(c *gin.Context) {
	actorID, _ := middleware.UserID(c)

	var req service.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Некорректный запрос"))
		return
	}

	expense, err := h.financeService.CreateExpense(c.Request.Context(), actorID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(expense))
}
