package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	stockService service.StockService
}

func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/api/stock")
	{
		stock.POST("/entries", middleware.RequireRole("admin", "manager", "staff"), h.RecordEntry)
		stock.POST("/entries/batch", middleware.RequireRole("admin", "manager", "staff"), h.RecordEntryBatch)
		stock.POST("/exits", middleware.RequireRole("admin", "manager", "staff"), h.RecordExit)
		stock.POST("/exits/batch", middleware.RequireRole("admin", "manager", "staff"), h.RecordExitBatch)
		stock.POST("/movements/:id/reverse", middleware.RequireRole("admin", "manager"), h.ReverseMovement)
		stock.GET("/state", middleware.RequireRole("admin", "manager", "staff"), h.ListStates)
		stock.GET("/state/:articleId", middleware.RequireRole("admin", "manager", "staff"), h.CurrentState)
		stock.GET("/movements/today", middleware.RequireRole("admin", "manager", "staff"), h.TodayMovements)
		stock.GET("/articles/:articleId/history", middleware.RequireRole("admin", "manager", "staff"), h.History)
		stock.GET("/alerts", middleware.RequireRole("admin", "manager", "staff"), h.StockAlerts)
	}
}

// RecordEntry records a stock receipt and reblends the weighted average
// @Summary      Record stock entry
// @Description  Receives quantity at a unit cost and updates the article's weighted average price
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.StockEntryRequest  true  "Stock Entry Payload"
// @Success      201      {object}  response.Response{data=service.MovementResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/stock/entries [post]
func (h *StockHandler) RecordEntry(c *gin.Context) {
	var req service.StockEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	movement, err := h.stockService.RecordEntry(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// RecordEntryBatch records several receipts atomically
// @Summary      Record stock entries in batch
// @Description  Applies all entries in one transaction; any failure rolls back the whole batch
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      []service.StockEntryRequest  true  "Stock Entries Payload"
// @Success      201      {object}  response.Response{data=[]service.MovementResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/stock/entries/batch [post]
func (h *StockHandler) RecordEntryBatch(c *gin.Context) {
	var reqs []service.StockEntryRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	movements, err := h.stockService.RecordEntryBatch(c.Request.Context(), c.GetString("userID"), reqs)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movements))
}

// RecordExit records a stock issue at the current average
// @Summary      Record stock exit
// @Description  Issues quantity from stock; the weighted average price is unchanged
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.StockExitRequest  true  "Stock Exit Payload"
// @Success      201      {object}  response.Response{data=service.MovementResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/stock/exits [post]
func (h *StockHandler) RecordExit(c *gin.Context) {
	var req service.StockExitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	movement, err := h.stockService.RecordExit(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// RecordExitBatch records several issues atomically
// @Summary      Record stock exits in batch
// @Description  Applies all exits in one transaction; one short article rolls back the whole batch
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      []service.StockExitRequest  true  "Stock Exits Payload"
// @Success      201      {object}  response.Response{data=[]service.MovementResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/stock/exits/batch [post]
func (h *StockHandler) RecordExitBatch(c *gin.Context) {
	var reqs []service.StockExitRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	movements, err := h.stockService.RecordExitBatch(c.Request.Context(), c.GetString("userID"), reqs)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movements))
}

// ReverseMovement appends a compensating movement
// @Summary      Reverse a stock movement
// @Description  Undoes a movement by appending a compensating one; history is never edited
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Movement ID"
// @Success      201  {object}  response.Response{data=service.MovementResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/stock/movements/{id}/reverse [post]
func (h *StockHandler) ReverseMovement(c *gin.Context) {
	movement, err := h.stockService.ReverseMovement(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// ListStates lists every article's valuation state
// @Summary      List stock states
// @Description  Returns quantity, weighted average, total value and status for all articles with stock rows
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.StockStateResponse}
// @Router       /api/stock/state [get]
func (h *StockHandler) ListStates(c *gin.Context) {
	states, err := h.stockService.ListStates(c.Request.Context())
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, states))
}

// CurrentState returns one article's valuation state
// @Summary      Get stock state
// @Description  Returns the article's quantity, weighted average, total value and status
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        articleId  path      string  true  "Article ID"
// @Success      200        {object}  response.Response{data=service.StockStateResponse}
// @Failure      404        {object}  response.Response
// @Router       /api/stock/state/{articleId} [get]
func (h *StockHandler) CurrentState(c *gin.Context) {
	state, err := h.stockService.CurrentState(c.Request.Context(), c.Param("articleId"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, state))
}

// TodayMovements lists movements recorded since midnight
// @Summary      Today's movements
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.MovementResponse}
// @Router       /api/stock/movements/today [get]
func (h *StockHandler) TodayMovements(c *gin.Context) {
	movements, err := h.stockService.TodayMovements(c.Request.Context())
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, movements))
}

// History returns an article's paginated movement log
// @Summary      Movement history
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        articleId  path      string  true   "Article ID"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200        {object}  response.Response{data=object}
// @Failure      400        {object}  response.Response
// @Router       /api/stock/articles/{articleId}/history [get]
func (h *StockHandler) History(c *gin.Context) {
	params := pagination.Parse(c)
	movements, total, err := h.stockService.History(c.Request.Context(), c.Param("articleId"), params.Page, params.Limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"movements":  movements,
		"pagination": pagination.NewMeta(params, total),
	}))
}

// StockAlerts buckets articles needing attention
// @Summary      Stock alerts
// @Description  Returns EMPTY, CRITICAL, LOW and EXCESSIVE articles; NORMAL is omitted
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.StockAlertsResponse}
// @Router       /api/stock/alerts [get]
func (h *StockHandler) StockAlerts(c *gin.Context) {
	alerts, err := h.stockService.StockAlerts(c.Request.Context())
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, alerts))
}
