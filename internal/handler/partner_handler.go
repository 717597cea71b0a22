package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type PartnerHandler struct {
	partnerService service.PartnerService
}

func NewPartnerHandler(partnerService service.PartnerService) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService}
}

func (h *PartnerHandler) RegisterRoutes(router *gin.RouterGroup) {
	partners := router.Group("/api/partners")
	{
		partners.GET("", middleware.RequireRole("admin", "manager", "staff"), h.List)
		partners.GET("/:id", middleware.RequireRole("admin", "manager", "staff"), h.Get)
		partners.POST("", middleware.RequireRole("admin", "manager"), h.Create)
		partners.PUT("/:id", middleware.RequireRole("admin", "manager"), h.Update)
	}
}

// List returns partners, optionally filtered by role
// @Summary      List partners
// @Description  Lists partners; type=CUSTOMER or type=SUPPLIER also matches BOTH partners
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        type   query     string  false  "Partner type filter (CUSTOMER, SUPPLIER)"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/partners [get]
func (h *PartnerHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	partners, total, err := h.partnerService.List(c.Request.Context(), c.Query("type"), params.Page, params.Limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"partners":   partners,
		"pagination": pagination.NewMeta(params, total),
	}))
}

// Get returns one partner
// @Summary      Get partner
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Partner ID"
// @Success      200  {object}  response.Response{data=model.Partner}
// @Failure      404  {object}  response.Response
// @Router       /api/partners/{id} [get]
func (h *PartnerHandler) Get(c *gin.Context) {
	partner, err := h.partnerService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, partner))
}

// Create registers a customer, supplier or both
// @Summary      Create partner
// @Tags         partners
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePartnerRequest  true  "Create Partner Payload"
// @Success      201      {object}  response.Response{data=model.Partner}
// @Failure      400      {object}  response.Response
// @Router       /api/partners [post]
func (h *PartnerHandler) Create(c *gin.Context) {
	var req service.CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	partner, err := h.partnerService.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, partner))
}

// Update edits a partner's details
// @Summary      Update partner
// @Tags         partners
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Partner ID"
// @Param        payload  body      service.UpdatePartnerRequest  true  "Update Partner Payload"
// @Success      200      {object}  response.Response{data=model.Partner}
// @Failure      404      {object}  response.Response
// @Router       /api/partners/{id} [put]
func (h *PartnerHandler) Update(c *gin.Context) {
	var req service.UpdatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	partner, err := h.partnerService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, partner))
}
