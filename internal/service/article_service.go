package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DTOs
type CreateArticleRequest struct {
	Code      string `json:"code" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Category  string `json:"category" binding:"required"`
	UnitPrice string `json:"unit_price" binding:"required"`
	StockMin  int    `json:"stock_min" binding:"min=0"`
	StockMax  int    `json:"stock_max" binding:"min=0"`
}

type UpdateArticleRequest struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	UnitPrice string `json:"unit_price"`
	StockMin  *int   `json:"stock_min"`
	StockMax  *int   `json:"stock_max"`
	Active    *bool  `json:"active"`
}

type ArticleResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	UnitPrice string `json:"unit_price"`
	StockMin  int    `json:"stock_min"`
	StockMax  int    `json:"stock_max"`
	Active    bool   `json:"active"`
}

type ArticleService interface {
	Create(ctx context.Context, userID string, req CreateArticleRequest) (ArticleResponse, error)
	Update(ctx context.Context, userID string, articleID string, req UpdateArticleRequest) (ArticleResponse, error)
	Get(ctx context.Context, articleID string) (ArticleResponse, error)
	List(ctx context.Context, page, limit int, search string) ([]ArticleResponse, int64, error)
}

type articleService struct {
	articleRepo repository.ArticleRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	logger      *zap.Logger
}

func NewArticleService(
	articleRepo repository.ArticleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	logger *zap.Logger,
) ArticleService {
	return &articleService{
		articleRepo: articleRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

func toArticleResponse(a *model.Article) ArticleResponse {
	return ArticleResponse{
		ID:        a.ID.String(),
		Code:      a.Code,
		Name:      a.Name,
		Category:  a.Category,
		UnitPrice: a.UnitPrice.Round(2).String(),
		StockMin:  a.StockMin,
		StockMax:  a.StockMax,
		Active:    a.Active,
	}
}

func validateThresholds(min, max int) error {
	if min < 0 || max < 0 {
		return apperr.New(apperr.KindValidation, "stock thresholds must not be negative")
	}
	if max > 0 && max < min {
		return apperr.Newf(apperr.KindValidation, "stock max %d is below stock min %d", max, min)
	}
	return nil
}

func (s *articleService) Create(ctx context.Context, userID string, req CreateArticleRequest) (ArticleResponse, error) {
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		return ArticleResponse{}, apperr.Newf(apperr.KindValidation, "invalid unit price %q", req.UnitPrice)
	}
	if price.IsNegative() {
		return ArticleResponse{}, apperr.New(apperr.KindValidation, "unit price must not be negative")
	}
	if err := validateThresholds(req.StockMin, req.StockMax); err != nil {
		return ArticleResponse{}, err
	}

	if _, err := s.articleRepo.FindByCode(ctx, req.Code); err == nil {
		return ArticleResponse{}, apperr.Newf(apperr.KindConflict, "article code %q already exists", req.Code)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ArticleResponse{}, fmt.Errorf("failed to check article code: %w", err)
	}

	article := model.Article{
		Code:      req.Code,
		Name:      req.Name,
		Category:  req.Category,
		UnitPrice: price,
		StockMin:  req.StockMin,
		StockMax:  req.StockMax,
		Active:    true,
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.articleRepo.Create(txCtx, &article); err != nil {
			return fmt.Errorf("failed to create article: %w", err)
		}
		return s.logAudit(txCtx, userID, model.ActionCreateArticle, article.ID.String(), article.Name, req)
	})
	if err != nil {
		return ArticleResponse{}, err
	}

	s.logger.Info("article created", zap.String("code", article.Code), zap.String("category", article.Category))
	return toArticleResponse(&article), nil
}

func (s *articleService) Update(ctx context.Context, userID string, articleID string, req UpdateArticleRequest) (ArticleResponse, error) {
	id, err := parseID("article id", articleID)
	if err != nil {
		return ArticleResponse{}, err
	}
	article, err := s.articleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ArticleResponse{}, apperr.Newf(apperr.KindNotFound, "article %s not found", articleID)
		}
		return ArticleResponse{}, fmt.Errorf("failed to find article: %w", err)
	}

	if req.Name != "" {
		article.Name = req.Name
	}
	if req.Category != "" {
		article.Category = req.Category
	}
	if req.UnitPrice != "" {
		price, err := decimal.NewFromString(req.UnitPrice)
		if err != nil {
			return ArticleResponse{}, apperr.Newf(apperr.KindValidation, "invalid unit price %q", req.UnitPrice)
		}
		if price.IsNegative() {
			return ArticleResponse{}, apperr.New(apperr.KindValidation, "unit price must not be negative")
		}
		article.UnitPrice = price
	}
	if req.StockMin != nil {
		article.StockMin = *req.StockMin
	}
	if req.StockMax != nil {
		article.StockMax = *req.StockMax
	}
	if err := validateThresholds(article.StockMin, article.StockMax); err != nil {
		return ArticleResponse{}, err
	}
	if req.Active != nil {
		article.Active = *req.Active
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.articleRepo.Update(txCtx, article); err != nil {
			return fmt.Errorf("failed to update article: %w", err)
		}
		return s.logAudit(txCtx, userID, model.ActionUpdateArticle, article.ID.String(), article.Name, req)
	})
	if err != nil {
		return ArticleResponse{}, err
	}
	return toArticleResponse(article), nil
}

func (s *articleService) logAudit(ctx context.Context, userID, action, entityID, entityName string, payload interface{}) error {
	return writeAudit(ctx, s.auditRepo, userID, action, entityID, entityName, payload)
}

func (s *articleService) Get(ctx context.Context, articleID string) (ArticleResponse, error) {
	id, err := parseID("article id", articleID)
	if err != nil {
		return ArticleResponse{}, err
	}
	article, err := s.articleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ArticleResponse{}, apperr.Newf(apperr.KindNotFound, "article %s not found", articleID)
		}
		return ArticleResponse{}, fmt.Errorf("failed to find article: %w", err)
	}
	return toArticleResponse(article), nil
}

func (s *articleService) List(ctx context.Context, page, limit int, search string) ([]ArticleResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	articles, total, err := s.articleRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list articles: %w", err)
	}
	res := make([]ArticleResponse, 0, len(articles))
	for i := range articles {
		res = append(res, toArticleResponse(&articles[i]))
	}
	return res, total, nil
}
