package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type PricingHandler struct {
	pricingService service.PricingService
}

func NewPricingHandler(pricingService service.PricingService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService}
}

func (h *PricingHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/pricing/preview", middleware.RequireRole("admin", "manager", "staff"), h.Preview)
}

// Preview quotes a set of lines without saving anything
// @Summary      Preview pricing
// @Description  Prices the lines with current catalog data: per-line discounts, VAT for invoices, totals rounded to 2 decimals
// @Tags         pricing
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PreviewRequest  true  "Pricing Preview Payload"
// @Success      200      {object}  response.Response{data=service.OrderTotals}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/pricing/preview [post]
func (h *PricingHandler) Preview(c *gin.Context) {
	var req service.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	totals, err := h.pricingService.Preview(c.Request.Context(), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, totals))
}
