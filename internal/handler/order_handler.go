package handler

import (
	"net/http"
	"strconv"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.POST("", middleware.RequireRole("admin", "manager", "staff"), h.Save)
		orders.GET("", middleware.RequireRole("admin", "manager", "staff"), h.List)
		orders.GET("/:id", middleware.RequireRole("admin", "manager", "staff"), h.Get)
		orders.PUT("/:id", middleware.RequireRole("admin", "manager", "staff"), h.Update)
		orders.POST("/:id/payments", middleware.RequireRole("admin", "manager", "staff"), h.RecordPayment)
		orders.POST("/:id/cancel", middleware.RequireRole("admin", "manager"), h.Cancel)
		orders.POST("/:id/confirm-stock", middleware.RequireRole("admin", "manager", "staff"), h.ConfirmStock)
	}
	customers := router.Group("/api/customers")
	{
		customers.POST("/:id/payments", middleware.RequireRole("admin", "manager", "staff"), h.RecordCustomerPayment)
		customers.POST("/:id/archive-paid", middleware.RequireRole("admin", "manager"), h.ArchivePaid)
		customers.GET("/:id/payments", middleware.RequireRole("admin", "manager", "staff"), h.PaymentHistory)
	}
}

// Save creates an order with snapshot prices
// @Summary      Save order
// @Description  Prices the lines with the current catalog and stores the order in SAVED state; stock is untouched
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SaveOrderRequest  true  "Save Order Payload"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) Save(c *gin.Context) {
	var req service.SaveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.Save(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// List returns a filtered, paginated order listing
// @Summary      List orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        customer_id  query     string  false  "Filter by customer"
// @Param        status       query     string  false  "Filter by status"
// @Param        archived     query     bool    false  "Filter by archived flag"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	query := service.OrderListQuery{
		CustomerID: c.Query("customer_id"),
		Status:     c.Query("status"),
		Page:       params.Page,
		Limit:      params.Limit,
	}
	if raw := c.Query("archived"); raw != "" {
		archived, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid archived filter: "+raw))
			return
		}
		query.Archived = &archived
	}

	orders, total, err := h.orderService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"orders":     orders,
		"pagination": pagination.NewMeta(params, total),
	}))
}

// Get returns one order with its lines
// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// Update replaces the order's lines and reprices it
// @Summary      Update order
// @Description  Replaces lines and reprices; totals are always recomputed, never edited directly
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Order ID"
// @Param        payload  body      service.UpdateOrderRequest  true  "Update Order Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id} [put]
func (h *OrderHandler) Update(c *gin.Context) {
	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.Update(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// RecordPayment applies a payment to one order
// @Summary      Record order payment
// @Description  Applies the amount to the order; paying more than the remaining balance is rejected
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Order ID"
// @Param        payload  body      service.PaymentRequest  true  "Payment Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/payments [post]
func (h *OrderHandler) RecordPayment(c *gin.Context) {
	var req service.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.RecordOrderPayment(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// Cancel voids an order
// @Summary      Cancel order
// @Description  Cancels a non-paid order; stock already consumed stays as-is and is corrected via movement reversals if needed
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	order, err := h.orderService.Cancel(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ConfirmStock issues the order's stock exits
// @Summary      Confirm order stock
// @Description  Issues one exit per line in a single transaction, exactly once per order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/confirm-stock [post]
func (h *OrderHandler) ConfirmStock(c *gin.Context) {
	order, err := h.orderService.ConfirmStock(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// RecordCustomerPayment sweeps one payment across a customer's open orders
// @Summary      Record customer payment
// @Description  Splits the amount across unpaid orders oldest first; exceeding the outstanding balance rejects the whole payment
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Customer ID"
// @Param        payload  body      service.PaymentRequest  true  "Payment Payload"
// @Success      200      {object}  response.Response{data=service.CustomerPaymentResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/customers/{id}/payments [post]
func (h *OrderHandler) RecordCustomerPayment(c *gin.Context) {
	var req service.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.orderService.RecordCustomerPayment(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// ArchivePaid archives a customer's fully paid orders
// @Summary      Archive paid orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/customers/{id}/archive-paid [post]
func (h *OrderHandler) ArchivePaid(c *gin.Context) {
	archived, err := h.orderService.ArchivePaid(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{"archived": archived}))
}

// PaymentHistory lists a customer's payments, newest first
// @Summary      Customer payment history
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Customer ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/customers/{id}/payments [get]
func (h *OrderHandler) PaymentHistory(c *gin.Context) {
	params := pagination.Parse(c)
	payments, total, err := h.orderService.PaymentHistory(c.Request.Context(), c.Param("id"), params.Page, params.Limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"payments":   payments,
		"pagination": pagination.NewMeta(params, total),
	}))
}
