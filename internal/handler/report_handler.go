package handler

import (
	"net/http"
	"strconv"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports", middleware.RequireRole("admin", "manager"))
	{
		reports.GET("/today", h.Today)
		reports.GET("/top-consumed", h.TopConsumed)
		reports.GET("/suppliers", h.SupplierTotals)
		reports.GET("/stock-value-by-category", h.StockValueByCategory)
	}
}

// Today summarizes movement activity since midnight
// @Summary      Today's activity report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.TodayReport}
// @Router       /api/reports/today [get]
func (h *ReportHandler) Today(c *gin.Context) {
	report, err := h.reportService.Today(c.Request.Context())
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// TopConsumed ranks articles by exit volume
// @Summary      Top consumed articles
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        days   query     int  false  "Window in days (default 30)"
// @Param        limit  query     int  false  "Number of articles (default 10, max 100)"
// @Success      200    {object}  response.Response{data=[]repository.ArticleConsumption}
// @Router       /api/reports/top-consumed [get]
func (h *ReportHandler) TopConsumed(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	rankings, err := h.reportService.TopConsumed(c.Request.Context(), days, limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rankings))
}

// SupplierTotals aggregates received value per supplier
// @Summary      Supplier delivery totals
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        days  query     int  false  "Window in days (default 30)"
// @Success      200   {object}  response.Response{data=[]repository.SupplierTotal}
// @Router       /api/reports/suppliers [get]
func (h *ReportHandler) SupplierTotals(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	totals, err := h.reportService.SupplierTotals(c.Request.Context(), days)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, totals))
}

// StockValueByCategory values current stock per article category
// @Summary      Stock value by category
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]repository.CategoryValue}
// @Router       /api/reports/stock-value-by-category [get]
func (h *ReportHandler) StockValueByCategory(c *gin.Context) {
	values, err := h.reportService.StockValueByCategory(c.Request.Context())
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, values))
}
