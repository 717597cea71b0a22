package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ArticleHandler struct {
	articleService service.ArticleService
}

func NewArticleHandler(articleService service.ArticleService) *ArticleHandler {
	return &ArticleHandler{articleService: articleService}
}

func (h *ArticleHandler) RegisterRoutes(router *gin.RouterGroup) {
	articles := router.Group("/api/articles")
	{
		articles.GET("", middleware.RequireRole("admin", "manager", "staff"), h.List)
		articles.GET("/:id", middleware.RequireRole("admin", "manager", "staff"), h.Get)
		articles.POST("", middleware.RequireRole("admin", "manager"), h.Create)
		articles.PUT("/:id", middleware.RequireRole("admin", "manager"), h.Update)
	}
}

// List returns the paginated catalog
// @Summary      List articles
// @Tags         articles
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        search  query     string  false  "Search by name or code"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/articles [get]
func (h *ArticleHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	articles, total, err := h.articleService.List(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"articles":   articles,
		"pagination": pagination.NewMeta(params, total),
	}))
}

// Get returns one article
// @Summary      Get article
// @Tags         articles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Article ID"
// @Success      200  {object}  response.Response{data=service.ArticleResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/articles/{id} [get]
func (h *ArticleHandler) Get(c *gin.Context) {
	article, err := h.articleService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, article))
}

// Create adds an article to the catalog
// @Summary      Create article
// @Tags         articles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateArticleRequest  true  "Create Article Payload"
// @Success      201      {object}  response.Response{data=service.ArticleResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/articles [post]
func (h *ArticleHandler) Create(c *gin.Context) {
	var req service.CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	article, err := h.articleService.Create(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, article))
}

// Update edits catalog data and reorder thresholds
// @Summary      Update article
// @Tags         articles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Article ID"
// @Param        payload  body      service.UpdateArticleRequest  true  "Update Article Payload"
// @Success      200      {object}  response.Response{data=service.ArticleResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/articles/{id} [put]
func (h *ArticleHandler) Update(c *gin.Context) {
	var req service.UpdateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	article, err := h.articleService.Update(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, article))
}
