package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/repository"
	"backend/pkg/apperr"

	"gorm.io/gorm"
)

// PreviewRequest asks for a quote without persisting anything. Prices and
// categories come from the catalog as it stands right now.
type PreviewRequest struct {
	DocumentType        string             `json:"document_type" binding:"required,oneof=INVOICE DELIVERY_NOTE"`
	ReductionPercentage string             `json:"reduction_percentage"`
	Lines               []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type PricingService interface {
	Preview(ctx context.Context, req PreviewRequest) (OrderTotals, error)
}

type pricingService struct {
	articleRepo repository.ArticleRepository
	engine      *PricingEngine
}

func NewPricingService(articleRepo repository.ArticleRepository, engine *PricingEngine) PricingService {
	return &pricingService{articleRepo: articleRepo, engine: engine}
}

func (s *pricingService) Preview(ctx context.Context, req PreviewRequest) (OrderTotals, error) {
	reduction, err := parseReduction(req.ReductionPercentage)
	if err != nil {
		return OrderTotals{}, err
	}

	lines := make([]PriceLine, 0, len(req.Lines))
	for _, lr := range req.Lines {
		articleID, err := parseID("article id", lr.ArticleID)
		if err != nil {
			return OrderTotals{}, err
		}
		article, err := s.articleRepo.FindByID(ctx, articleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return OrderTotals{}, apperr.Newf(apperr.KindNotFound, "article %s not found", lr.ArticleID)
			}
			return OrderTotals{}, fmt.Errorf("failed to find article: %w", err)
		}
		lines = append(lines, PriceLine{
			ArticleID: article.ID.String(),
			Quantity:  lr.Quantity,
			UnitPrice: article.UnitPrice,
			Category:  article.Category,
		})
	}
	return s.engine.Quote(lines, reduction, req.DocumentType)
}
