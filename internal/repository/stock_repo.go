package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRepository interface {
	Create(ctx context.Context, stock *model.Stock) error
	Save(ctx context.Context, stock *model.Stock) error
	FindByArticleID(ctx context.Context, articleID uuid.UUID) (*model.Stock, error)
	// FindByArticleIDForUpdate takes a row lock so concurrent movements on
	// the same article serialize; different articles proceed in parallel.
	FindByArticleIDForUpdate(ctx context.Context, articleID uuid.UUID) (*model.Stock, error)
	ListWithArticles(ctx context.Context) ([]model.Stock, error)
}

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) Create(ctx context.Context, stock *model.Stock) error {
	return GetDB(ctx, r.db).Create(stock).Error
}

func (r *stockRepository) Save(ctx context.Context, stock *model.Stock) error {
	return GetDB(ctx, r.db).Save(stock).Error
}

func (r *stockRepository) FindByArticleID(ctx context.Context, articleID uuid.UUID) (*model.Stock, error) {
	var stock model.Stock
	if err := GetDB(ctx, r.db).Where("article_id = ?", articleID).First(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepository) FindByArticleIDForUpdate(ctx context.Context, articleID uuid.UUID) (*model.Stock, error) {
	var stock model.Stock
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("article_id = ?", articleID).First(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepository) ListWithArticles(ctx context.Context) ([]model.Stock, error) {
	var stocks []model.Stock
	if err := GetDB(ctx, r.db).Preload("Article").Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}
